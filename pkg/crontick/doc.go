// Package crontick is a tick-driven cron scheduler meant to be embedded in
// a host process that already owns an event loop.
//
// The scheduler keeps an ordered queue of named tasks and fires the due
// ones whenever the host calls Tick; it never starts goroutines or timers
// of its own. The host is expected to tick at least once per second.
//
// Wall-clock jumps (NTP corrections, DST transitions, suspend/resume) are
// handled with the classic cron policy: a change of less than three hours
// is treated as elapsed time, so a forward jump fires each task that fell
// due at most once and a backward jump fires nothing twice; a change of
// three hours or more is treated as a clock correction and every task is
// rescheduled against the new timeline.
package crontick
