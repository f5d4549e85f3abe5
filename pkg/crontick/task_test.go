package crontick

import (
	"testing"
	"time"
)

func TestTaskCalculateNext(t *testing.T) {
	t.Parallel()
	schedule, err := StandardParser().Parse("0 30 * * * *")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	task := newTask("halfhour", schedule, nopJob)

	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if !task.CalculateNext(from) {
		t.Fatal("CalculateNext = false, want true")
	}
	want := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	if !task.Next().Equal(want) {
		t.Fatalf("Next = %v, want %v", task.Next(), want)
	}

	// Strictly after: asking from the occurrence itself moves to the next
	// one.
	if !task.CalculateNext(want) {
		t.Fatal("CalculateNext = false, want true")
	}
	if !task.Next().Equal(want.Add(time.Hour)) {
		t.Fatalf("Next = %v, want %v", task.Next(), want.Add(time.Hour))
	}
}

func TestTaskExpiry(t *testing.T) {
	t.Parallel()
	next := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	task := queuedTask("due", next)

	tests := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{name: "before", now: next.Add(-time.Second), expired: false},
		{name: "exactly at", now: next, expired: true},
		{name: "after", now: next.Add(time.Second), expired: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := task.IsExpired(tt.now); got != tt.expired {
				t.Fatalf("IsExpired(%v) = %v, want %v", tt.now, got, tt.expired)
			}
		})
	}

	if d := task.TimeUntilExpiry(next.Add(-time.Minute)); d != time.Minute {
		t.Fatalf("TimeUntilExpiry = %v, want 1m", d)
	}
	if d := task.TimeUntilExpiry(next.Add(time.Minute)); d != -time.Minute {
		t.Fatalf("TimeUntilExpiry past due = %v, want -1m", d)
	}
}

func TestTaskWithoutOccurrenceNeverExpires(t *testing.T) {
	t.Parallel()
	task := newTask("exhausted", listSchedule{}, nopJob)
	if task.CalculateNext(time.Now()) {
		t.Fatal("CalculateNext on exhausted rule = true, want false")
	}
	if task.IsExpired(time.Now().Add(time.Hour)) {
		t.Fatal("task without an occurrence reported expired")
	}
}

func TestTaskExecutePassesTimestamp(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	var got time.Time
	task := newTask("echo", listSchedule{}, func(ts time.Time) { got = ts })
	task.Execute(now)
	if !got.Equal(now) {
		t.Fatalf("job received %v, want %v", got, now)
	}
}
