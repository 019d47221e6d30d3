package schedule

import "errors"

// ErrNoSchedule is returned by Schedule when called on a nil *Scheduler.
var ErrNoSchedule = errors.New("schedule: unable to schedule task: no schedule")

// ErrLockAlloc is returned by Schedule when the configured lock factory
// fails to produce a per-identity mutex. Go's runtime allocator does not
// fail in practice; this exists for contract fidelity with the original
// malloc-failure path and is exercised by a fault-injecting lock factory in
// tests (see WithLockFactory).
var ErrLockAlloc = errors.New("schedule: unable to allocate identity lock")
