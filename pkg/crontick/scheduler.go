package crontick

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	logx "crontick/pkg/logx"
)

const (
	// tickGranularity is the supported scheduling resolution. Ticks closer
	// together than this are evaluated against the previous tick's
	// timestamp so near-simultaneous ticks reach the same expiry decisions.
	tickGranularity = time.Second

	// clockCorrectionThreshold separates ordinary jitter from clock
	// corrections. Per cron(8), a change of three hours or more (DST in
	// odd timezones, manual clock sets, long suspends) takes effect
	// immediately instead of being treated as elapsed time.
	clockCorrectionThreshold = 3 * time.Hour
)

// Forever is returned by TimeUntilNext when nothing is scheduled.
const Forever = time.Duration(math.MaxInt64)

// ErrInvalidSchedule matches any registration failure via errors.Is.
var ErrInvalidSchedule = errors.New("invalid schedule")

// InvalidScheduleError reports the schedule that failed to parse. Both the
// single and the bulk registration forms return it, so the caller always
// learns which name/spec pair was rejected.
type InvalidScheduleError struct {
	Name string
	Spec string
	Err  error
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule %q for task %q: %v", e.Spec, e.Name, e.Err)
}

func (e *InvalidScheduleError) Unwrap() error { return e.Err }

func (e *InvalidScheduleError) Is(target error) bool { return target == ErrInvalidSchedule }

// Expiry is one row of the scheduler's introspection view.
type Expiry struct {
	Name string
	In   time.Duration
}

// ScheduleParser validates a schedule spec and compiles it into a
// recurrence rule. cron.Parser satisfies it; anything else that produces a
// cron.Schedule works too.
type ScheduleParser interface {
	Parse(spec string) (cron.Schedule, error)
}

// Scheduler fires registered jobs according to their cron rules whenever
// the host calls Tick. It owns its queue and clock for its entire lifetime;
// the clock is reachable through Clock for host-driven time control.
type Scheduler struct {
	lock   Locker
	queue  taskQueue
	clock  Clock
	parser ScheduleParser
	log    logx.Logger

	firstTick bool
	lastTick  time.Time
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithClock replaces the default LocalClock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocker selects the exclusion policy. The default is NullLocker;
// concurrent embeddings should pass a *ReentrantLocker.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.lock = l
		}
	}
}

// WithLogger attaches a structured logger. The default logs nothing.
func WithLogger(log logx.Logger) Option {
	return func(s *Scheduler) {
		if !log.IsZero() {
			s.log = log
		}
	}
}

// WithParser replaces the default cron parser (optional seconds field,
// standard five crontab fields, @-descriptors including "@every").
func WithParser(p ScheduleParser) Option {
	return func(s *Scheduler) { s.parser = p }
}

// StandardParser returns the parser New installs by default: optional
// seconds field, the five crontab fields, and @-descriptors including
// "@every". Hosts can use it to pre-validate specs without touching a
// scheduler.
func StandardParser() cron.Parser {
	return cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		lock:      NullLocker{},
		clock:     LocalClock{},
		parser:    StandardParser(),
		log:       logx.Nop(),
		firstTick: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clock returns the injected clock, e.g. for advancing a TestClock.
func (s *Scheduler) Clock() Clock { return s.clock }

// AddSchedule registers one named schedule. An unparsable spec returns
// *InvalidScheduleError and mutates nothing. A valid spec whose rule yields
// no future occurrence is accepted (nil error) but inserts nothing. An
// existing task with the same name is replaced.
func (s *Scheduler) AddSchedule(name, spec string, job Job) error {
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return &InvalidScheduleError{Name: name, Spec: spec, Err: err}
	}
	t := newTask(name, schedule, job)

	s.lock.Lock()
	defer s.lock.Unlock()

	if !t.CalculateNext(s.clock.Now()) {
		s.log.Debug("schedule has no future occurrence; not queued",
			logx.String("name", name), logx.String("spec", spec))
		return nil
	}

	// Upsert by name: replacing keeps the unique-name invariant without
	// erroring on re-registration.
	s.queue.removeName(name)
	s.queue.push(t)
	s.queue.sortByNext()
	s.log.Debug("schedule registered",
		logx.String("name", name), logx.String("spec", spec), logx.Time("next", t.next))
	return nil
}

// AddSchedules registers a batch of name->spec entries sharing one job,
// with all-or-nothing semantics: every spec is validated before any state
// changes, and the first invalid pair is reported via *InvalidScheduleError.
// Entries are validated in ascending name order so the reported pair is
// deterministic. On success all runnable tasks are inserted and the queue
// is sorted once, under a single lock acquisition.
func (s *Scheduler) AddSchedules(specs map[string]string, job Job) error {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	now := s.clock.Now()
	pending := make([]*Task, 0, len(specs))
	for _, name := range names {
		spec := specs[name]
		schedule, err := s.parser.Parse(spec)
		if err != nil {
			return &InvalidScheduleError{Name: name, Spec: spec, Err: err}
		}
		t := newTask(name, schedule, job)
		if t.CalculateNext(now) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	for _, t := range pending {
		s.queue.removeName(t.name)
	}
	s.queue.pushAll(pending)
	s.queue.sortByNext()
	s.log.Debug("schedules registered", logx.Int("count", len(pending)))
	return nil
}

// RemoveSchedule unschedules the named task. No-op when absent.
func (s *Scheduler) RemoveSchedule(name string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.queue.removeName(name) {
		s.log.Debug("schedule removed", logx.String("name", name))
	}
}

// ClearSchedules removes every task.
func (s *Scheduler) ClearSchedules() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.queue.clear()
}

// Count returns the number of queued tasks.
func (s *Scheduler) Count() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.queue.size()
}

// RecalculateSchedules recomputes every task's next occurrence against the
// current clock, for host-triggered resynchronization. The one-second
// offset keeps each recomputed occurrence strictly in the future so nothing
// degenerately re-fires at "now". Tasks whose rule is exhausted are
// retired.
func (s *Scheduler) RecalculateSchedules() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.recalculateLocked(s.clock.Now().Add(tickGranularity))
	s.queue.sortByNext()
}

// recalculateLocked recomputes all tasks from the given reference and
// retires the ones left without a future occurrence. Call with the lock
// held; the caller re-sorts.
func (s *Scheduler) recalculateLocked(from time.Time) {
	var retired []*Task
	for _, t := range s.queue.all() {
		if !t.CalculateNext(from) {
			retired = append(retired, t)
		}
	}
	for _, t := range retired {
		s.queue.removeTask(t)
		s.log.Debug("task retired", logx.String("name", t.name))
	}
}

// Tick evaluates due tasks against the injected clock. It is expected to be
// called at least once per second to avoid missing occurrences.
func (s *Scheduler) Tick() int {
	return s.TickAt(s.clock.Now())
}

// TickAt runs one scheduling pass against the given timestamp and returns
// the number of job executions. The whole call is one critical section.
func (s *Scheduler) TickAt(now time.Time) int {
	s.lock.Lock()
	defer s.lock.Unlock()

	// Only let time flow once at least one second has passed since the
	// last tick, in either direction. Faster re-invocations converge on
	// the previous timestamp instead of drifting.
	if !s.firstTick {
		diff := now.Sub(s.lastTick)
		if diff > -tickGranularity && diff < tickGranularity {
			now = s.lastTick
		}
	}

	if s.firstTick {
		// Bootstrap tick: establish the baseline, no drift classification.
		s.firstTick = false
	} else {
		diff := now.Sub(s.lastTick)
		if diff < 0 {
			diff = -diff
		}
		if diff >= clockCorrectionThreshold {
			// Clock correction: reschedule everything against the new
			// timeline instead of firing a backlog of "missed"
			// occurrences or staying anchored to the obsolete one.
			s.log.Info("clock correction detected; rescheduling all tasks",
				logx.Duration("jump", diff), logx.Int("tasks", s.queue.size()))
			s.recalculateLocked(now)
		}
		// Below the threshold nothing is forced: a forward jump lets each
		// task that fell due fire once, and a backward jump leaves the
		// already computed occurrences alone so nothing runs twice.
	}

	s.lastTick = now

	// Snapshot the currently due tasks before mutating the queue, so a
	// mid-pass removal cannot shift an unvisited task out of the pass.
	// Tasks added by a running job are picked up on the next tick.
	var due []*Task
	for _, t := range s.queue.all() {
		if t.IsExpired(now) {
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].next.Before(due[j].next) })

	fired := 0
	for _, t := range due {
		// A job earlier in this pass may have removed this task.
		if !s.queue.contains(t) {
			continue
		}
		t.Execute(now)
		fired++
		// The offset guarantees the recomputed occurrence is strictly
		// after the instant just handled, so the task cannot be judged
		// expired again in this pass or an immediately following tick.
		if !t.CalculateNext(now.Add(tickGranularity)) {
			s.queue.removeTask(t)
			s.log.Debug("task retired", logx.String("name", t.name))
		}
	}

	// Ordering only needs to be restored for future ticks, not mid-pass.
	if fired > 0 {
		s.queue.sortByNext()
	}
	return fired
}

// TimeUntilNext returns the duration until the soonest task fires, or
// Forever when the queue is empty.
func (s *Scheduler) TimeUntilNext() time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()
	top, ok := s.queue.top()
	if !ok {
		return Forever
	}
	return top.TimeUntilExpiry(s.clock.Now())
}

// Expiries returns (name, time-until-fire) for every queued task.
func (s *Scheduler) Expiries() []Expiry {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.clock.Now()
	out := make([]Expiry, 0, s.queue.size())
	for _, t := range s.queue.all() {
		out = append(out, Expiry{Name: t.name, In: t.TimeUntilExpiry(now)})
	}
	return out
}

// StatusLines returns one human-readable line per task, decoupled from any
// output sink.
func (s *Scheduler) StatusLines() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.clock.Now()
	out := make([]string, 0, s.queue.size())
	for _, t := range s.queue.all() {
		out = append(out, t.Status(now))
	}
	return out
}
