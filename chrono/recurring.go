package chrono

import (
	"time"

	"oss.nandlabs.io/enforcer/clock"
	"oss.nandlabs.io/enforcer/schedule"
)

// NextDueDate converts a Schedule's next activation time, computed from the
// clock's current reading, into the epoch-second due date schedule.Task
// values use. It returns ok=false if the schedule has no further
// activations (Next returned the zero time).
func NextDueDate(s Schedule, clk clock.Clock) (dueDate int64, ok bool) {
	now := time.Unix(clk.Now(), 0).UTC()
	next := s.Next(now)
	if next.IsZero() {
		return 0, false
	}
	return next.Unix(), true
}

// Reschedule computes identity's next due date from s and re-schedules it
// on scheduler, carrying forward context and release. It is meant to be
// called by a workerpool.Handler after a recurring task completes. It
// returns ok=false without touching the scheduler if the schedule has no
// further activations.
func Reschedule(scheduler *schedule.Scheduler, s Schedule, clk clock.Clock, identity schedule.Identity, context any, release schedule.ReleaseFunc) (*schedule.Task, bool, error) {
	dueDate, ok := NextDueDate(s, clk)
	if !ok {
		return nil, false, nil
	}
	task, err := scheduler.Schedule(identity, dueDate, context, release)
	if err != nil {
		return nil, false, err
	}
	return task, true, nil
}
