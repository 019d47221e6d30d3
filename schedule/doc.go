// Package schedule implements the task scheduler core: a time-ordered
// priority queue of tasks secondarily indexed by identity, with per-identity
// mutual exclusion and a blocking Pop contract that parks callers until the
// earliest task is due.
//
// A Scheduler owns three structures guarded by a single mutex: a binary heap
// ordering tasks by (due date, identity), a map from identity to the
// currently scheduled task, and a map from identity to a mutex that outlives
// any single scheduling of that identity. Mutating operations rearm a
// background timer goroutine and broadcast a condition variable so that
// goroutines parked in Pop wake up promptly without a process-wide alarm.
package schedule
