package daemon

import (
	"context"
	"fmt"
	"time"

	"crontick/internal/config"
	"crontick/internal/history"
	"crontick/pkg/crontick"
	logx "crontick/pkg/logx"
)

// App wires the config manager, logging service, run-history store and the
// scheduling engine together.
type App struct {
	mgr    *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	sched *crontick.Scheduler
	hist  history.Store
	run   *runner

	cur *config.Config
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(loggingConfig(cfg))

	hist, err := history.Open(historyConfig(cfg), log.With(logx.String("comp", "history")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}

	// The runner's job goroutines never call back into the engine, but
	// operators commonly wire introspection endpoints from other
	// goroutines, so the engine gets the real lock.
	sched := crontick.New(
		crontick.WithLocker(&crontick.ReentrantLocker{}),
		crontick.WithLogger(log.With(logx.String("comp", "sched"))),
	)

	a := &App{
		mgr:    mgr,
		logSvc: logSvc,
		log:    log,
		sched:  sched,
		hist:   hist,
		run:    newRunner(log.With(logx.String("comp", "runner")), hist),
		cur:    cfg,
	}

	mgr.SetLogger(log.With(logx.String("comp", "config")))
	mgr.SetValidator(a.validateConfig)
	return a, nil
}

// Scheduler exposes the engine for introspection (status endpoints, tests).
func (a *App) Scheduler() *crontick.Scheduler { return a.sched }

// validateConfig is the reload hook: reject configs whose job schedules the
// engine's parser would refuse, before anything is committed.
func (a *App) validateConfig(ctx context.Context, cfg *config.Config) error {
	_ = ctx
	parser := crontick.StandardParser()
	for _, jc := range cfg.Jobs {
		if _, err := parser.Parse(jc.Schedule); err != nil {
			return fmt.Errorf("job %q: schedule %q: %w", jc.Name, jc.Schedule, err)
		}
	}
	return nil
}

// Run drives the daemon until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.registerJobs(a.cur); err != nil {
		return err
	}

	go func() { _ = a.mgr.Watch(ctx) }()
	sub := a.mgr.Subscribe(1)
	defer a.mgr.Unsubscribe(sub)

	stopPprof := startPprof(a.cur.Pprof, a.log)

	ticker := time.NewTicker(a.cur.TickInterval())
	defer ticker.Stop()

	var wdC <-chan time.Time
	if iv := watchdogInterval(a.log); iv > 0 {
		wdT := time.NewTicker(iv)
		defer wdT.Stop()
		wdC = wdT.C
	}
	notifyReady(a.log)

	a.log.Info("daemon started",
		logx.Int("jobs", a.sched.Count()),
		logx.Duration("tick_interval", a.cur.TickInterval()))

	for {
		select {
		case <-ctx.Done():
			notifyStopping()
			stopPprof()
			a.shutdown()
			return nil

		case <-ticker.C:
			if fired := a.sched.Tick(); fired > 0 {
				a.log.Debug("tick", logx.Int("fired", fired))
			}

		case <-wdC:
			notifyWatchdog()

		case cfg := <-sub:
			if cfg == nil {
				continue
			}
			stopPprof = a.applyConfig(cfg, ticker, stopPprof)
		}
	}
}

func (a *App) shutdown() {
	a.run.wait()
	if a.hist != nil {
		_ = a.hist.Close()
	}
	a.log.Info("daemon stopped")
	_ = a.logSvc.Close()
}

// registerJobs replaces the engine's schedules with the config's job list.
// Specs were validated before commit, so a parse failure here is a bug.
func (a *App) registerJobs(cfg *config.Config) error {
	a.sched.ClearSchedules()
	for _, jc := range cfg.Jobs {
		if err := a.sched.AddSchedule(jc.Name, jc.Schedule, a.run.jobFor(jc)); err != nil {
			return fmt.Errorf("register job %q: %w", jc.Name, err)
		}
	}
	return nil
}

// applyConfig reacts to a committed config change section by section.
func (a *App) applyConfig(cfg *config.Config, ticker *time.Ticker, stopPprof func()) func() {
	sections, attrs := config.SummarizeConfigChange(a.cur, cfg)
	if len(sections) == 0 {
		a.cur = cfg
		return stopPprof
	}
	a.log.Info("applying config change", append([]logx.Field{logx.Any("sections", sections)}, attrs...)...)

	for _, sec := range sections {
		switch sec {
		case "logging":
			a.logSvc.Apply(loggingConfig(cfg))
		case "scheduler":
			ticker.Reset(cfg.TickInterval())
		case "history":
			if a.hist != nil {
				_ = a.hist.Close()
			}
			h, err := history.Open(historyConfig(cfg), a.log.With(logx.String("comp", "history")))
			if err != nil {
				a.log.Warn("history reopen failed; disabling", logx.Err(err))
				h = nil
			}
			a.hist = h
			a.run.setStore(h)
		case "pprof":
			stopPprof()
			stopPprof = startPprof(cfg.Pprof, a.log)
		case "jobs":
			if err := a.registerJobs(cfg); err != nil {
				a.log.Error("job re-registration failed; keeping previous schedules", logx.Err(err))
				_ = a.registerJobs(a.cur)
				continue
			}
		}
	}

	a.cur = cfg
	return stopPprof
}

func loggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func historyConfig(cfg *config.Config) history.Config {
	h := cfg.History
	if h == nil {
		return history.Config{}
	}
	busy, _ := config.ParseDurationField("history.busy_timeout", h.BusyTimeout)
	keep, _ := config.ParseDurationField("history.retention", h.Retention)
	return history.Config{
		Driver:      h.Driver,
		Path:        h.Path,
		BusyTimeout: busy,
		Retention:   keep,
	}
}
