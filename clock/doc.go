// Package clock provides the monotonic time source the scheduler core
// consumes. Production code uses RealClock; tests inject a VirtualClock so
// due-date arithmetic can be driven deterministically without sleeping.
package clock
