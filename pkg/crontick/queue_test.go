package crontick

import (
	"testing"
	"time"
)

func queuedTask(name string, next time.Time) *Task {
	t := newTask(name, listSchedule{}, nopJob)
	t.next = next
	return t
}

func TestQueueSortAndTop(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	var q taskQueue
	q.push(queuedTask("late", base.Add(time.Hour)))
	q.push(queuedTask("early", base.Add(time.Minute)))
	q.push(queuedTask("mid", base.Add(10*time.Minute)))
	q.sortByNext()

	top, ok := q.top()
	if !ok || top.name != "early" {
		t.Fatalf("top = %v, want early", top)
	}
	want := []string{"early", "mid", "late"}
	for i, task := range q.all() {
		if task.name != want[i] {
			t.Fatalf("position %d = %s, want %s", i, task.name, want[i])
		}
	}
}

func TestQueueStableSortKeepsTieOrder(t *testing.T) {
	t.Parallel()
	next := time.Date(2026, 3, 10, 12, 1, 0, 0, time.UTC)
	var q taskQueue
	q.push(queuedTask("a", next))
	q.push(queuedTask("b", next))
	q.sortByNext()
	if q.all()[0].name != "a" || q.all()[1].name != "b" {
		t.Fatal("equal next times did not keep insertion order")
	}
}

func TestQueueRemove(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	var q taskQueue
	target := queuedTask("target", base)
	other := queuedTask("other", base.Add(time.Minute))
	q.pushAll([]*Task{target, other})

	if q.removeName("ghost") {
		t.Fatal("removeName(ghost) = true, want false")
	}
	if !q.removeName("target") {
		t.Fatal("removeName(target) = false, want true")
	}
	if q.contains(target) {
		t.Fatal("contains removed task")
	}
	if !q.removeTask(other) {
		t.Fatal("removeTask(other) = false, want true")
	}
	if !q.empty() {
		t.Fatalf("size = %d after removals, want 0", q.size())
	}
}

func TestQueueClear(t *testing.T) {
	t.Parallel()
	var q taskQueue
	q.push(queuedTask("a", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)))
	q.clear()
	if _, ok := q.top(); ok {
		t.Fatal("top on cleared queue reported a task")
	}
}
