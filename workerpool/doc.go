// Package workerpool implements the worker-side half of the task
// scheduler: a fixed number of goroutines that loop calling
// schedule.Scheduler.Pop, acquire the returned task's identity lock,
// execute it with a caller-supplied handler, and release the lock.
//
// A Pool is a lifecycle.Component: Start spawns the worker goroutines
// under an errgroup.Group, and Stop cancels their context, calls
// ReleaseAll on the underlying scheduler so any parked Pop calls wake
// immediately, and waits for every worker to return, aggregating
// per-worker errors into an errutils.MultiError.
package workerpool
