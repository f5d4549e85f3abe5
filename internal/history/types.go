package history

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the run-history store.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	Retention   time.Duration // prune runs older than this; 0 keeps everything
}

// Run records one job firing. Keep it compact and schema-stable.
type Run struct {
	Name     string
	Started  time.Time
	Duration time.Duration
	OK       bool
	Error    string
}
