package config

import (
	"reflect"
	"sort"
	"strings"

	logx "crontick/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact sorted list of changed
// sections and (2) safe structured attrs for logging the new values.
// The daemon uses the section list to decide what to rebuild on reload:
// "jobs" triggers re-registration on the engine, "logging" re-applies
// sinks, "history" reopens the store, "scheduler" restarts the tick loop.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	// Logging
	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	// Scheduler (tick loop)
	if strings.TrimSpace(oldCfg.Scheduler.TickInterval) != strings.TrimSpace(newCfg.Scheduler.TickInterval) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Duration("scheduler.tick_interval", newCfg.TickInterval()),
		)
	}

	// History store. Nil means disabled.
	oH := derefHistory(oldCfg.History)
	nH := derefHistory(newCfg.History)
	if !reflect.DeepEqual(oH, nH) {
		changed = append(changed, "history")
		attrs = append(attrs,
			logx.String("history.driver", strings.TrimSpace(nH.Driver)),
			logx.Bool("history.path_set", strings.TrimSpace(nH.Path) != ""),
		)
	}

	// Pprof
	if oldCfg.Pprof != newCfg.Pprof {
		changed = append(changed, "pprof")
		attrs = append(attrs,
			logx.Bool("pprof.enabled", newCfg.Pprof.Enabled),
			logx.String("pprof.addr", strings.TrimSpace(newCfg.Pprof.Addr)),
		)
	}

	// Jobs: any difference in the set or in any field re-registers the
	// whole batch (registration is an all-or-nothing upsert anyway).
	if !reflect.DeepEqual(oldCfg.Jobs, newCfg.Jobs) {
		changed = append(changed, "jobs")
		attrs = append(attrs, logx.Int("jobs.count", len(newCfg.Jobs)))
	}

	sort.Strings(changed)
	return changed, attrs
}

func derefHistory(h *HistoryConfig) HistoryConfig {
	if h == nil {
		return HistoryConfig{}
	}
	return *h
}
