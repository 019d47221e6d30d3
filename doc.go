// Package enforcer implements the task scheduler core of a DNSSEC zone
// enforcer daemon: a coalescing, identity-keyed priority schedule of
// due-dated tasks, a pool of workers that pop and execute them, and the
// supporting kind registry and configuration used to wire the two
// together.
//
// The scheduler itself lives in the schedule sub-package; everything
// else in this module builds on top of it.
//
// Each sub-package is independently importable:
//
//	import "oss.nandlabs.io/enforcer/schedule"     // Task schedule core
//	import "oss.nandlabs.io/enforcer/workerpool"   // Worker pool built on schedule
//	import "oss.nandlabs.io/enforcer/taskkind"     // Task kind registry
//	import "oss.nandlabs.io/enforcer/engineconfig" // Engine configuration
//	import "oss.nandlabs.io/enforcer/clock"        // Clock abstraction
//	import "oss.nandlabs.io/enforcer/chrono"       // Recurring schedule calculators
//	import "oss.nandlabs.io/enforcer/l3"           // Logging
//	import "oss.nandlabs.io/enforcer/config"       // Application configuration
//	import "oss.nandlabs.io/enforcer/lifecycle"    // Component lifecycle management
//
// For a complete list of packages and documentation, see DESIGN.md and
// SPEC_FULL.md at the repository root.
package enforcer
