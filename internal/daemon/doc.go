// Package daemon hosts the scheduling engine as a long-running process.
//
// It owns the pieces the engine deliberately leaves to its host: the tick
// loop, command execution, run-history persistence, config hot-reload, and
// systemd readiness/watchdog notifications.
package daemon
