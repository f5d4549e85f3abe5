package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	History   *HistoryConfig  `json:"history,omitempty"`
	Pprof     PprofConfig     `json:"pprof,omitempty"`
	Jobs      []JobConfig     `json:"jobs"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SchedulerConfig controls the tick loop that drives the engine.
type SchedulerConfig struct {
	// TickInterval is a Go duration string (e.g. "1s", "500ms" is invalid).
	// The engine's guaranteed resolution is one second, so values below
	// that are rejected. Default: "1s".
	TickInterval string `json:"tick_interval,omitempty"`
}

// HistoryConfig controls the optional run-history store.
//
// Driver values:
//   - "none" (or empty): history disabled
//   - "file":   append-only JSON Lines file
//   - "sqlite": SQLite database file
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
	Retention   string `json:"retention,omitempty"`    // prune runs older than this
}

// PprofConfig controls the optional pprof HTTP server.
// Prefer binding to localhost.
type PprofConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:6060"
}

// JobConfig describes one scheduled command.
//
// Schedule accepts whatever the engine's cron parser accepts: five-field
// crontab, optional leading seconds field, and @-descriptors such as
// "@hourly" or "@every 90s".
type JobConfig struct {
	Name     string   `json:"name"`
	Schedule string   `json:"schedule"`
	Command  string   `json:"command"`
	Args     []string `json:"args,omitempty"`
	Dir      string   `json:"dir,omitempty"`
	// Timeout is a Go duration string; "0s" or omitted disables it.
	Timeout string `json:"timeout,omitempty"`
}

// TickInterval returns the effective tick interval.
func (c *Config) TickInterval() time.Duration {
	d, err := ParseDurationOrDefault("scheduler.tick_interval", c.Scheduler.TickInterval, time.Second)
	if err != nil || d < time.Second {
		return time.Second
	}
	return d
}

// Validate performs structural checks. Schedule syntax is deliberately NOT
// checked here; the daemon validates specs against the engine's own parser
// before committing a config.
func (c *Config) Validate() error {
	if _, err := ParseDurationField("scheduler.tick_interval", c.Scheduler.TickInterval); err != nil {
		return err
	}
	if raw := strings.TrimSpace(c.Scheduler.TickInterval); raw != "" {
		d, _ := ParseDurationField("scheduler.tick_interval", raw)
		if d < time.Second {
			return errors.New("scheduler.tick_interval: must be at least 1s")
		}
	}

	if h := c.History; h != nil {
		switch strings.ToLower(strings.TrimSpace(h.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("history.driver: unknown driver %q", h.Driver)
		}
		if _, err := ParseDurationField("history.busy_timeout", h.BusyTimeout); err != nil {
			return err
		}
		if _, err := ParseDurationField("history.retention", h.Retention); err != nil {
			return err
		}
	}

	seen := make(map[string]struct{}, len(c.Jobs))
	for i, j := range c.Jobs {
		name := strings.TrimSpace(j.Name)
		if name == "" {
			return fmt.Errorf("jobs[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("jobs[%d]: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(j.Schedule) == "" {
			return fmt.Errorf("jobs[%d] (%s): schedule is required", i, name)
		}
		if strings.TrimSpace(j.Command) == "" {
			return fmt.Errorf("jobs[%d] (%s): command is required", i, name)
		}
		if _, err := ParseDurationField(fmt.Sprintf("jobs[%d].timeout", i), j.Timeout); err != nil {
			return err
		}
	}
	return nil
}
