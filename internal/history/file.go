package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "crontick/pkg/logx"
)

// fileStore is a dependency-free persistence backend: one append-only JSON
// Lines file. On open it replays the existing file into a bounded
// in-memory tail so RecentRuns works across restarts. The file driver does
// not apply Retention; use the sqlite driver when pruning matters.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	f    *os.File
	tail []Run // oldest first, capped at tailMax
}

const tailMax = 256

type runRecord struct {
	Name       string `json:"name"`
	Started    string `json:"started"` // RFC3339Nano
	DurationMS int64  `json:"duration_ms"`
	OK         bool   `json:"ok"`
	Error      string `json:"err,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("history.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	st := &fileStore{log: log}
	if err := st.replay(path); err != nil {
		log.Debug("history replay failed; starting empty", logx.Err(err))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	st.f = f
	return st, nil
}

func (s *fileStore) replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec runRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		r, err := rec.toRun()
		if err != nil {
			continue
		}
		s.tail = append(s.tail, r)
		if len(s.tail) > tailMax {
			s.tail = s.tail[len(s.tail)-tailMax:]
		}
	}
	return sc.Err()
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *fileStore) RecordRun(ctx context.Context, r Run) error {
	_ = ctx
	if r.Started.IsZero() {
		r.Started = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return errors.New("history file closed")
	}
	rec := runRecord{
		Name:       r.Name,
		Started:    r.Started.Format(time.RFC3339Nano),
		DurationMS: r.Duration.Milliseconds(),
		OK:         r.OK,
		Error:      r.Error,
	}
	if err := json.NewEncoder(s.f).Encode(rec); err != nil {
		return err
	}
	s.tail = append(s.tail, r)
	if len(s.tail) > tailMax {
		s.tail = s.tail[len(s.tail)-tailMax:]
	}
	return nil
}

func (s *fileStore) RecentRuns(ctx context.Context, name string, n int) ([]Run, error) {
	_ = ctx
	if n <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Run, 0, n)
	for i := len(s.tail) - 1; i >= 0 && len(out) < n; i-- {
		if name != "" && s.tail[i].Name != name {
			continue
		}
		out = append(out, s.tail[i])
	}
	return out, nil
}

func (rec runRecord) toRun() (Run, error) {
	started, err := time.Parse(time.RFC3339Nano, rec.Started)
	if err != nil {
		return Run{}, err
	}
	return Run{
		Name:     rec.Name,
		Started:  started,
		Duration: time.Duration(rec.DurationMS) * time.Millisecond,
		OK:       rec.OK,
		Error:    rec.Error,
	}, nil
}
