package schedule

import "sync"

// ReleaseFunc releases a task's context. It must be safe to call exactly
// once and is never invoked while the scheduler's lock is held.
type ReleaseFunc func(context any)

// Task is a unit of deferred work with a stable identity and a due time.
// Callers never construct a Task directly; Scheduler.Schedule returns one.
type Task struct {
	identity Identity
	dueDate  int64
	context  any
	release  ReleaseFunc
	lock     *sync.Mutex

	// heapIndex is the task's current position in the owning Scheduler's
	// heap, maintained by the heap.Interface implementation. It is -1 when
	// the task has been popped or purged.
	heapIndex int
}

// Identity returns the task's (class, type, owner) triple.
func (t *Task) Identity() Identity {
	return t.identity
}

// DueDate returns the task's due date, in seconds since the Unix epoch.
func (t *Task) DueDate() int64 {
	return t.dueDate
}

// Context returns the opaque payload handed to the worker.
func (t *Task) Context() any {
	return t.context
}

// Lock acquires the task's per-identity mutex. Workers must call this before
// running the task body and Unlock after, so that at most one worker
// executes a task of this identity at a time. The lock is not held while the
// task sits in the schedule, only while a worker is executing it.
func (t *Task) Lock() {
	t.lock.Lock()
}

// Unlock releases the task's per-identity mutex.
func (t *Task) Unlock() {
	t.lock.Unlock()
}
