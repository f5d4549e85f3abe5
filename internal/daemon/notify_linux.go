//go:build linux

package daemon

import (
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"

	logx "crontick/pkg/logx"
)

func notifyReady(log logx.Logger) {
	sent, err := sd.SdNotify(false, sd.SdNotifyReady)
	if err != nil {
		log.Debug("sd_notify failed", logx.Err(err))
		return
	}
	if sent {
		log.Debug("systemd readiness notified")
	}
}

func notifyStopping() {
	_, _ = sd.SdNotify(false, sd.SdNotifyStopping)
}

func notifyWatchdog() {
	_, _ = sd.SdNotify(false, sd.SdNotifyWatchdog)
}

// watchdogInterval returns how often to pet the systemd watchdog, or zero
// when no watchdog is configured. Petting at half the configured timeout
// leaves headroom for scheduling delays.
func watchdogInterval(log logx.Logger) time.Duration {
	d, err := sd.SdWatchdogEnabled(false)
	if err != nil || d == 0 {
		return 0
	}
	log.Debug("systemd watchdog enabled", logx.Duration("timeout", d))
	return d / 2
}
