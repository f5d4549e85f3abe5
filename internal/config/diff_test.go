package config

import (
	"reflect"
	"testing"
)

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	base := func() *Config {
		return &Config{
			Logging:   LoggingConfig{Level: "info", Console: true},
			Scheduler: SchedulerConfig{TickInterval: "1s"},
			Jobs: []JobConfig{
				{Name: "a", Schedule: "* * * * *", Command: "/bin/true"},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{name: "no change", mutate: func(*Config) {}, want: []string{}},
		{
			name:   "log level",
			mutate: func(c *Config) { c.Logging.Level = "debug" },
			want:   []string{"logging"},
		},
		{
			name:   "tick interval",
			mutate: func(c *Config) { c.Scheduler.TickInterval = "5s" },
			want:   []string{"scheduler"},
		},
		{
			name:   "history enabled",
			mutate: func(c *Config) { c.History = &HistoryConfig{Driver: "file", Path: "/tmp/h"} },
			want:   []string{"history"},
		},
		{
			name:   "pprof enabled",
			mutate: func(c *Config) { c.Pprof.Enabled = true },
			want:   []string{"pprof"},
		},
		{
			name:   "job schedule edited",
			mutate: func(c *Config) { c.Jobs[0].Schedule = "@hourly" },
			want:   []string{"jobs"},
		},
		{
			name: "several sections",
			mutate: func(c *Config) {
				c.Logging.Console = false
				c.Jobs = nil
			},
			want: []string{"jobs", "logging"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := base()
			tt.mutate(next)
			got, _ := SummarizeConfigChange(base(), next)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("changed sections = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarizeConfigChangeNilOld(t *testing.T) {
	t.Parallel()
	changed, _ := SummarizeConfigChange(nil, &Config{Logging: LoggingConfig{Level: "info"}})
	if len(changed) == 0 {
		t.Fatal("nil old config must report changes")
	}
}
