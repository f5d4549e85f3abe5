package daemon

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"crontick/internal/config"
	"crontick/internal/history"
	"crontick/pkg/crontick"
	logx "crontick/pkg/logx"
)

// runner turns job configs into engine callbacks. The engine fires
// synchronously inside Tick, so the closure only dispatches: the command
// itself runs on its own goroutine and never delays the tick loop or other
// jobs.
type runner struct {
	log logx.Logger

	mu       sync.Mutex
	hist     history.Store
	limiters map[string]*rate.Limiter

	wg sync.WaitGroup
}

func newRunner(log logx.Logger, hist history.Store) *runner {
	return &runner{
		log:      log,
		hist:     hist,
		limiters: map[string]*rate.Limiter{},
	}
}

func (r *runner) setStore(h history.Store) {
	r.mu.Lock()
	r.hist = h
	r.mu.Unlock()
}

func (r *runner) store() history.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hist
}

// wait blocks until all dispatched commands have finished.
func (r *runner) wait() { r.wg.Wait() }

func (r *runner) jobFor(jc config.JobConfig) crontick.Job {
	timeout, _ := config.ParseDurationField("timeout", jc.Timeout)
	return func(now time.Time) {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.exec(jc, timeout, now)
		}()
	}
}

func (r *runner) exec(jc config.JobConfig, timeout time.Duration, firedAt time.Time) {
	start := time.Now()
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, jc.Command, jc.Args...)
	cmd.Dir = jc.Dir
	out, err := cmd.CombinedOutput()
	took := time.Since(start)

	run := history.Run{Name: jc.Name, Started: start, Duration: took, OK: err == nil}
	if err != nil {
		run.Error = err.Error()
		// A flapping job would otherwise spam a warning every occurrence.
		if r.allowFailureLog(jc.Name) {
			r.log.Warn("job failed",
				logx.String("job", jc.Name),
				logx.Err(err),
				logx.Duration("took", took),
				logx.String("output", tailOf(out)))
		}
	} else {
		r.log.Debug("job ok",
			logx.String("job", jc.Name),
			logx.Duration("took", took),
			logx.Time("fired_at", firedAt))
	}

	if hist := r.store(); hist != nil {
		hctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := hist.RecordRun(hctx, run); err != nil {
			r.log.Debug("history write failed", logx.String("job", jc.Name), logx.Err(err))
		}
		cancel()
	}
}

// allowFailureLog rate-limits failure warnings per job name: a small burst,
// then one every 30 seconds.
func (r *runner) allowFailureLog(name string) bool {
	r.mu.Lock()
	lim := r.limiters[name]
	if lim == nil {
		lim = rate.NewLimiter(rate.Every(30*time.Second), 3)
		r.limiters[name] = lim
	}
	r.mu.Unlock()
	return lim.Allow()
}

// tailOf trims command output to a short single-line suffix for logs.
func tailOf(out []byte) string {
	const maxTail = 300
	s := strings.TrimSpace(string(out))
	if len(s) > maxTail {
		s = "..." + s[len(s)-maxTail:]
	}
	return strings.ReplaceAll(s, "\n", " | ")
}
