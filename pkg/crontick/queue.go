package crontick

import "sort"

// taskQueue is the ordered, exclusively owned task collection. It performs
// no locking itself: the scheduler holds its Locker around every sequence
// of queue operations it needs to observe atomically. Between those
// critical sections the slice is kept sorted by next fire time; within a
// tick's execution pass the re-sort is deferred to the end.
type taskQueue struct {
	tasks []*Task
}

func (q *taskQueue) size() int   { return len(q.tasks) }
func (q *taskQueue) empty() bool { return len(q.tasks) == 0 }

// all exposes the underlying slice for iteration. Callers must not retain
// it past the critical section.
func (q *taskQueue) all() []*Task { return q.tasks }

func (q *taskQueue) push(t *Task) {
	q.tasks = append(q.tasks, t)
}

func (q *taskQueue) pushAll(ts []*Task) {
	q.tasks = append(q.tasks, ts...)
}

// sortByNext restores ascending next-fire order. Ties keep their relative
// order within a single call.
func (q *taskQueue) sortByNext() {
	sort.SliceStable(q.tasks, func(i, j int) bool {
		return q.tasks[i].next.Before(q.tasks[j].next)
	})
}

// top returns the task with the smallest next fire time. It assumes the
// queue is sorted, which holds everywhere outside a tick's execution pass.
func (q *taskQueue) top() (*Task, bool) {
	if len(q.tasks) == 0 {
		return nil, false
	}
	return q.tasks[0], true
}

// removeName removes the first task with the given name. No-op when absent.
func (q *taskQueue) removeName(name string) bool {
	for i, t := range q.tasks {
		if t.name == name {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// removeTask removes the task by identity.
func (q *taskQueue) removeTask(target *Task) bool {
	for i, t := range q.tasks {
		if t == target {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return true
		}
	}
	return false
}

func (q *taskQueue) contains(target *Task) bool {
	for _, t := range q.tasks {
		if t == target {
			return true
		}
	}
	return false
}

func (q *taskQueue) clear() {
	q.tasks = nil
}
