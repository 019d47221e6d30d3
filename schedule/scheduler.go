package schedule

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"oss.nandlabs.io/enforcer/clock"
	"oss.nandlabs.io/enforcer/collections"
	"oss.nandlabs.io/enforcer/l3"
)

var logger = l3.Get()

// noDueDate is the sentinel PeekFirstTime returns when the schedule is
// empty, mirroring the original implementation's time_t(-1).
const noDueDate int64 = -1

// longPoll is the timer goroutine's fallback sleep when the schedule is
// empty: no alarm is truly needed, but a bounded sleep keeps the goroutine
// from parking forever on a timer that a future Schedule call must rearm
// anyway via the non-blocking rearm channel.
const longPoll = 24 * time.Hour

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithLockFactory overrides how per-identity mutexes are created. Tests use
// this to simulate the lock-allocation failure path described in the
// scheduler's failure semantics; production code never needs it.
func WithLockFactory(f func() (*sync.Mutex, error)) Option {
	return func(s *Scheduler) {
		s.lockFactory = f
	}
}

// Scheduler is the task scheduler core described in the package doc. The
// zero value is not usable; construct one with New.
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond
	clk  clock.Clock

	heap            taskHeap
	byIdentity      map[Identity]*Task
	locksByIdentity map[Identity]*sync.Mutex
	lockFactory     func() (*sync.Mutex, error)

	numWaiting int

	rearm     chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
}

// New creates a Scheduler that reads the current time from clk. A nil clk
// defaults to clock.System.
func New(clk clock.Clock, opts ...Option) *Scheduler {
	if clk == nil {
		clk = clock.System
	}
	s := &Scheduler{
		clk:             clk,
		byIdentity:      make(map[Identity]*Task),
		locksByIdentity: make(map[Identity]*sync.Mutex),
		lockFactory:     func() (*sync.Mutex, error) { return new(sync.Mutex), nil },
		rearm:           make(chan struct{}, 1),
		closeCh:         make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	go s.timerLoop()
	return s
}

// Close stops the scheduler's background wakeup timer goroutine. It does
// not purge queued tasks; callers wanting a full teardown should call Purge
// first. Close is idempotent.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
}

// Schedule performs a coalescing insertion: if no task with this identity is
// currently scheduled, one is created (assigning it the identity's
// persistent lock, creating one on first use). Otherwise the existing
// task's due date is lowered to the earlier of the two, and its context is
// replaced — the old context's release hook, if any, is invoked after the
// lock is released.
func (s *Scheduler) Schedule(identity Identity, dueDate int64, context any, release ReleaseFunc) (*Task, error) {
	if s == nil {
		logger.Error("unable to schedule task: no schedule")
		return nil, ErrNoSchedule
	}

	s.mu.Lock()

	var pendingRelease ReleaseFunc
	var pendingContext any
	var result *Task

	if existing, ok := s.byIdentity[identity]; ok {
		if dueDate < existing.dueDate {
			existing.dueDate = dueDate
			heap.Fix(&s.heap, existing.heapIndex)
		}
		if existing.release != nil {
			pendingRelease = existing.release
			pendingContext = existing.context
		}
		existing.context = context
		existing.release = release
		result = existing
	} else {
		lock, ok := s.locksByIdentity[identity]
		if !ok {
			var err error
			lock, err = s.lockFactory()
			if err != nil || lock == nil {
				s.mu.Unlock()
				return nil, ErrLockAlloc
			}
			s.locksByIdentity[identity] = lock
		}
		task := &Task{identity: identity, dueDate: dueDate, context: context, release: release, lock: lock}
		heap.Push(&s.heap, task)
		s.byIdentity[identity] = task
		result = task
	}

	s.armTimerLocked()
	s.cond.Broadcast()
	s.mu.Unlock()

	if pendingRelease != nil {
		pendingRelease(pendingContext)
	}

	logger.DebugF("schedule task [%s] for %s", identity.Type, identity.Owner)
	return result, nil
}

// Pop returns the earliest-due task with ok true if it is due now. If no
// task is due it parks on the wakeup condition and returns
// (nil, false) as soon as it is woken — by a rearm-worthy mutation, by the
// computed deadline elapsing, by ctx being done, or by a spurious wake — so
// that the caller can re-check its own stop condition and call Pop again.
// ctx may be nil, in which case Pop can only be woken by scheduler events.
func (s *Scheduler) Pop(ctx context.Context) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.heap) > 0 && s.heap[0].dueDate <= s.clk.Now() {
		return s.popFirstLocked(), true
	}

	s.numWaiting++
	defer func() { s.numWaiting-- }()

	if ctx == nil {
		s.cond.Wait()
		return nil, false
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		case <-done:
		}
	}()
	s.cond.Wait()
	return nil, false
}

// PopImmediate removes and returns the head task unconditionally, without
// checking its due date or blocking. It is used during shutdown drain.
func (s *Scheduler) PopImmediate() (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heap) == 0 {
		return nil, false
	}
	return s.popFirstLocked(), true
}

// popFirstLocked removes and returns the heap head. Caller must hold s.mu.
func (s *Scheduler) popFirstLocked() *Task {
	task := heap.Pop(&s.heap).(*Task)
	delete(s.byIdentity, task.identity)
	s.armTimerLocked()
	return task
}

// PeekFirstTime returns the due date of the head task, or noDueDate if the
// schedule is empty.
func (s *Scheduler) PeekFirstTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heap) == 0 {
		return noDueDate
	}
	return s.heap[0].dueDate
}

// TaskCount returns the number of tasks currently queued.
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

// NumWaiting returns the number of goroutines currently parked in Pop.
func (s *Scheduler) NumWaiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numWaiting
}

// LockCount returns the number of per-identity locks currently retained by
// the scheduler, including ones belonging to identities with no task
// presently queued (a lock created by Schedule outlives the task that
// created it, since it may still be held by a running worker). Intended
// for tests and diagnostics.
func (s *Scheduler) LockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locksByIdentity)
}

// HasLock reports whether a per-identity lock exists for identity.
func (s *Scheduler) HasLock(identity Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.locksByIdentity[identity]
	return ok
}

// FlushAll sets every queued task's due date to zero, making all of them
// immediately runnable, and wakes every parked worker.
func (s *Scheduler) FlushAll() {
	logger.Debug("flush all tasks")
	s.mu.Lock()
	for _, t := range s.heap {
		t.dueDate = 0
	}
	heap.Init(&s.heap)
	s.armTimerLocked()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// FlushType sets the due date to zero for every task whose class and type
// match literally, and wakes every parked worker. It returns the number of
// tasks flushed.
func (s *Scheduler) FlushType(class, typ string) int {
	logger.DebugF("flush task %s/%s", class, typ)
	s.mu.Lock()
	flushed := 0
	for _, t := range s.heap {
		if t.identity.Class == class && t.identity.Type == typ {
			t.dueDate = 0
			flushed++
		}
	}
	if flushed > 0 {
		heap.Init(&s.heap)
	}
	s.armTimerLocked()
	s.cond.Broadcast()
	s.mu.Unlock()
	return flushed
}

// Purge removes every task from the schedule, invoking each task's release
// hook, and discards every per-identity lock. Callers must have stopped all
// workers before calling Purge.
func (s *Scheduler) Purge() {
	logger.Debug("cleanup schedule")
	s.mu.Lock()
	tasks := make([]*Task, len(s.heap))
	copy(tasks, s.heap)
	s.heap = nil
	s.byIdentity = make(map[Identity]*Task)
	s.locksByIdentity = make(map[Identity]*sync.Mutex)
	s.mu.Unlock()

	for _, t := range tasks {
		if t.release != nil {
			t.release(t.context)
		}
	}
}

// PurgeOwner removes every scheduled task whose class and owner match,
// invoking each task's release hook. Matches are collected in a first pass
// over a snapshot so the identity index is never mutated during iteration;
// a second pass removes them. Per-identity locks are not removed — they may
// still be held by a running worker or needed by a future Schedule call.
func (s *Scheduler) PurgeOwner(class, owner string) {
	s.mu.Lock()

	matched := collections.NewArrayList[*Task]()
	for _, t := range s.heap {
		if t.identity.Class == class && t.identity.Owner == owner {
			matched.Add(t)
		}
	}

	released := collections.NewArrayList[*Task]()
	for it := matched.Iterator(); it.HasNext(); {
		t := it.Next()
		if t.heapIndex < 0 || t.heapIndex >= len(s.heap) || s.heap[t.heapIndex] != t {
			logger.ErrorF("critical: could not reschedule task after flush: a task has been lost: %s", t.identity)
			continue
		}
		heap.Remove(&s.heap, t.heapIndex)
		delete(s.byIdentity, t.identity)
		released.Add(t)
	}
	s.armTimerLocked()
	s.mu.Unlock()

	for it := released.Iterator(); it.HasNext(); {
		t := it.Next()
		if t.release != nil {
			t.release(t.context)
		}
	}
}

// ReleaseAll broadcasts the wakeup condition, releasing every goroutine
// currently parked in Pop. Used at shutdown so parked workers can observe
// an external stop flag and exit.
func (s *Scheduler) ReleaseAll() {
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// armTimerLocked nudges the timer goroutine to recompute its deadline. It
// must be called with s.mu held, and never blocks: if a rearm is already
// pending the goroutine will pick up the latest state when it wakes.
func (s *Scheduler) armTimerLocked() {
	select {
	case s.rearm <- struct{}{}:
	default:
	}
}

// timerLoop owns a single time.Timer reset to the schedule's current
// deadline. It replaces the original SIGALRM handler: rather than a
// process-wide alarm signaling a recursive mutex, a dedicated goroutine
// sleeps until the head task is due (or for longPoll, if the schedule is empty)
// and broadcasts the condition when it fires or is rearmed.
func (s *Scheduler) timerLoop() {
	timer := time.NewTimer(s.computeDeadline())
	defer timer.Stop()
	for {
		select {
		case <-s.closeCh:
			return
		case <-timer.C:
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		case <-s.rearm:
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.computeDeadline())
	}
}

// computeDeadline returns how long the timer goroutine should sleep before
// its next broadcast.
func (s *Scheduler) computeDeadline() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.heap) == 0 {
		logger.Debug("no wakeup timer set")
		return longPoll
	}
	due := s.heap[0].dueDate
	now := s.clk.Now()
	if due <= now {
		logger.Debug("signal now")
		return 0
	}
	logger.DebugF("wakeup scheduled for %d", due)
	return time.Duration(due-now) * time.Second
}
