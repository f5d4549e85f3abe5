//go:build !linux

package daemon

import (
	"time"

	logx "crontick/pkg/logx"
)

func notifyReady(logx.Logger) {}

func notifyStopping() {}

func notifyWatchdog() {}

func watchdogInterval(logx.Logger) time.Duration { return 0 }
