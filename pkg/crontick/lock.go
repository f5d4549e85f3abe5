package crontick

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// Locker guards the scheduler's task queue. The choice is a policy made at
// construction, not a behavioral difference in the algorithm: a
// single-goroutine embedding can use NullLocker, a concurrent embedding
// needs ReentrantLocker.
//
// Whatever the implementation, it must allow the goroutine currently inside
// Tick to re-enter schedule management, because a job is free to call
// AddSchedule or RemoveSchedule on the same scheduler while it runs.
type Locker interface {
	Lock()
	Unlock()
}

// NullLocker performs no locking. Use it only when every call into the
// scheduler happens from a single goroutine.
type NullLocker struct{}

func (NullLocker) Lock()   {}
func (NullLocker) Unlock() {}

// ReentrantLocker is a mutual-exclusion lock that the holding goroutine may
// re-acquire without deadlocking. The zero value is ready to use.
type ReentrantLocker struct {
	mu    sync.Mutex
	owner atomic.Int64 // goroutine id of the holder, 0 when free
	depth int          // re-entry count, guarded by ownership
}

func (l *ReentrantLocker) Lock() {
	gid := goroutineID()
	if l.owner.Load() == gid {
		l.depth++
		return
	}
	l.mu.Lock()
	l.owner.Store(gid)
	l.depth = 1
}

func (l *ReentrantLocker) Unlock() {
	if l.owner.Load() != goroutineID() {
		panic("crontick: Unlock by goroutine that does not hold the lock")
	}
	l.depth--
	if l.depth == 0 {
		l.owner.Store(0)
		l.mu.Unlock()
	}
}

// goroutineID parses the current goroutine id out of the stack header
// ("goroutine 18 [running]:"). The runtime offers no public accessor; this
// is the same technique deadlock detectors use.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	id, _ := strconv.ParseInt(string(s), 10, 64)
	return id
}
