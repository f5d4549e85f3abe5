// Package history persists job run outcomes.
//
// It records one row per firing (name, start, duration, result) so
// operators can answer "when did this job last succeed" across restarts.
// Schedules themselves are never persisted; they come from config.
package history
