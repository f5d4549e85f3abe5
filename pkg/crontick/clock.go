package crontick

import (
	"sync"
	"time"
)

// Clock supplies wall-clock time to the scheduler. Implementations must
// have wall-clock semantics; monotonically non-decreasing behavior is NOT
// assumed (the drift policy in Tick exists precisely because the clock may
// jump).
type Clock interface {
	Now() time.Time
}

// LocalClock reads the system wall clock.
type LocalClock struct{}

func (LocalClock) Now() time.Time { return time.Now() }

// TestClock is a manually driven clock for tests and simulations. Obtain
// the scheduler's instance through Scheduler.Clock and move it with Set or
// Advance between ticks.
type TestClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewTestClock returns a clock frozen at start.
func NewTestClock(start time.Time) *TestClock {
	return &TestClock{now: start}
}

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to an absolute instant. Backward moves are allowed.
func (c *TestClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock by d (negative d moves it backward) and returns
// the new reading.
func (c *TestClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	t := c.now
	c.mu.Unlock()
	return t
}
