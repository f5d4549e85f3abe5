package crontick

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work attached to a schedule. The scheduler invokes it
// synchronously from within Tick, passing the tick timestamp the firing was
// decided against. The scheduler does not recover panics raised by a job;
// the queue lock is still released on the way out.
type Job func(now time.Time)

// Task binds a name, a compiled recurrence rule and a job together with the
// cached next fire time. Tasks are owned exclusively by the scheduler's
// queue; hosts only ever observe names and durations.
type Task struct {
	name     string
	schedule cron.Schedule
	job      Job
	next     time.Time
}

func newTask(name string, schedule cron.Schedule, job Job) *Task {
	return &Task{name: name, schedule: schedule, job: job}
}

func (t *Task) Name() string { return t.name }

// Next returns the cached next fire time. The zero time means the rule has
// no future occurrence and the task is about to be retired.
func (t *Task) Next() time.Time { return t.next }

// CalculateNext asks the rule for the earliest occurrence strictly after
// from and caches it. It reports false when the rule yields nothing, which
// marks the task retire-eligible.
func (t *Task) CalculateNext(from time.Time) bool {
	t.next = t.schedule.Next(from)
	return !t.next.IsZero()
}

// IsExpired reports whether the task is due at now (next fire <= now). A
// task without a computed occurrence is never due.
func (t *Task) IsExpired(now time.Time) bool {
	return !t.next.IsZero() && !t.next.After(now)
}

// TimeUntilExpiry is negative when the task is already due but has not yet
// been processed by a tick.
func (t *Task) TimeUntilExpiry(now time.Time) time.Duration {
	return t.next.Sub(now)
}

// Execute runs the job.
func (t *Task) Execute(now time.Time) {
	t.job(now)
}

// Status renders one human-readable line for status dumps.
func (t *Task) Status(now time.Time) string {
	return fmt.Sprintf("task: %s, next fire: %s, in: %s",
		t.name, t.next.Format(time.RFC3339), t.TimeUntilExpiry(now).Round(time.Second))
}
