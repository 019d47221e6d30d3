// Package chrono computes due times for recurring task classes: cron
// expressions (CronSchedule), fixed intervals (IntervalSchedule), and
// one-shot delays (OneShotSchedule). It does not run anything itself —
// recurring.go wires a Schedule's computed due time into
// schedule.Scheduler.Schedule, letting a worker reschedule a recurring
// task after it completes.
package chrono
