package history

import (
	"context"
	"errors"
	"strings"

	logx "crontick/pkg/logx"
)

// Store is the persistence API used by the daemon.
type Store interface {
	RecordRun(ctx context.Context, r Run) error
	// RecentRuns returns up to n runs, newest first. An empty name matches
	// every job.
	RecentRuns(ctx context.Context, name string, n int) ([]Run, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
