// Package taskkind is a named registry of the task classes the enforcer
// daemon drives: enforce, signconf, hsmkeygen, zonelist, keystatelist,
// updatekasp, and updatezonelist. The scheduler core itself treats a
// task's class/type as opaque strings; this registry exists purely as an
// integration point for a kind's Recurring chrono.Schedule (see
// chrono.NextDueDate and chrono.Reschedule) and for test fixtures, and is
// deliberately separate from the scheduler's own locking so it never
// contends with ready_by_time/ready_by_identity.
package taskkind
