package chrono

import (
	"errors"
	"time"
)

// Error sentinels for the schedule calculators in this package.
var (
	// ErrInvalidCronExpr is returned when a cron expression is malformed.
	ErrInvalidCronExpr = errors.New("chrono: invalid cron expression")
	// ErrInvalidInterval is returned when an interval duration is invalid.
	ErrInvalidInterval = errors.New("chrono: invalid interval")
	// ErrInvalidDelay is returned when a delay duration is invalid.
	ErrInvalidDelay = errors.New("chrono: invalid delay")
)

// Schedule defines when a recurring task should next run. It is the
// collaborator the scheduler core's callers use to compute a task's next
// due time before calling Scheduler.Schedule again — this package does not
// run anything itself.
type Schedule interface {
	// Next returns the next activation time after the given time.
	// It returns the zero time if there are no more activations.
	Next(from time.Time) time.Time
}
