package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crontick.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestManagerLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
logging:
  level: debug
  console: true
scheduler:
  tick_interval: 2s
history:
  driver: sqlite
  path: /var/lib/crontick/history.db
  retention: 720h
jobs:
  - name: backup
    schedule: "0 3 * * *"
    command: /usr/local/bin/backup.sh
    args: ["--fast"]
    timeout: 10m
  - name: heartbeat
    schedule: "@every 90s"
    command: /bin/true
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("logging = %+v, want debug/console", cfg.Logging)
	}
	if got := cfg.TickInterval(); got != 2*time.Second {
		t.Fatalf("TickInterval = %v, want 2s", got)
	}
	if cfg.History == nil || cfg.History.Driver != "sqlite" {
		t.Fatalf("history = %+v, want sqlite driver", cfg.History)
	}
	if len(cfg.Jobs) != 2 || cfg.Jobs[0].Name != "backup" || cfg.Jobs[1].Schedule != "@every 90s" {
		t.Fatalf("jobs = %+v", cfg.Jobs)
	}
}

func TestManagerParseRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown field",
			body: "schedulerr:\n  tick_interval: 1s\n",
			want: "unknown field",
		},
		{
			name: "duplicate job name",
			body: "jobs:\n  - {name: a, schedule: \"* * * * *\", command: /bin/true}\n  - {name: a, schedule: \"@hourly\", command: /bin/true}\n",
			want: "duplicate name",
		},
		{
			name: "missing command",
			body: "jobs:\n  - {name: a, schedule: \"* * * * *\"}\n",
			want: "command is required",
		},
		{
			name: "sub-second tick interval",
			body: "scheduler:\n  tick_interval: 500ms\n",
			want: "at least 1s",
		},
		{
			name: "bad history driver",
			body: "history:\n  driver: postgres\n  path: /tmp/x\n",
			want: "unknown driver",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewManager(writeConfig(t, tt.body)).Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestManagerDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := NewManager(writeConfig(t, "jobs: []\n")).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := cfg.TickInterval(); got != time.Second {
		t.Fatalf("default TickInterval = %v, want 1s", got)
	}
	if cfg.History != nil {
		t.Fatalf("history = %+v, want nil (disabled)", cfg.History)
	}
}

func TestManagerSubscribePublish(t *testing.T) {
	t.Parallel()
	m := NewManager("unused")
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	first := &Config{}
	second := &Config{Scheduler: SchedulerConfig{TickInterval: "5s"}}
	m.publish(first)
	// Buffer full: the newer config replaces the queued one.
	m.publish(second)

	select {
	case got := <-ch:
		if got != second {
			t.Fatal("subscriber received the stale config, want the newest")
		}
	default:
		t.Fatal("no config queued for subscriber")
	}
}
