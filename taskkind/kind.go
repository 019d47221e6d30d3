package taskkind

import (
	"oss.nandlabs.io/enforcer/chrono"
	"oss.nandlabs.io/enforcer/managers"
)

// The fixed set of task classes the original enforcer daemon drives,
// grounded on the command table in original_source's ods-enforcerd.c.
const (
	Enforce        = "enforce"
	SignConf       = "signconf"
	HSMKeyGen      = "hsmkeygen"
	ZoneList       = "zonelist"
	KeyStateList   = "keystatelist"
	UpdateKASP     = "updatekasp"
	UpdateZoneList = "updatezonelist"
)

// Kind describes a named task class: a human-readable description and,
// for recurring classes, the chrono.Schedule used to compute the next due
// date after a worker completes an instance of it. Recurring is nil for
// classes that are scheduled on demand rather than periodically.
type Kind struct {
	Name        string
	Description string
	Recurring   chrono.Schedule
}

// Registry is the process-wide registry of known task kinds, backed by
// managers.ItemManager. It is deliberately separate from schedule.Scheduler's
// internal locking: registering or looking up a kind never touches
// ready_by_time/ready_by_identity.
type Registry struct {
	items managers.ItemManager[Kind]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: managers.NewItemManager[Kind]()}
}

// Register adds or replaces the kind under its own Name.
func (r *Registry) Register(kind Kind) {
	r.items.Register(kind.Name, kind)
}

// Get returns the kind registered under name, or the zero Kind if absent.
func (r *Registry) Get(name string) Kind {
	return r.items.Get(name)
}

// All returns every registered kind, in no particular order.
func (r *Registry) All() []Kind {
	return r.items.Items()
}

// DefaultRegistry returns a Registry pre-populated with the seven task
// classes the original daemon drives, none of them recurring by default —
// callers attach a chrono.Schedule to a kind with WithRecurring before
// registering it if that class should reschedule itself.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, kind := range []Kind{
		{Name: Enforce, Description: "re-run policy enforcement for a zone"},
		{Name: SignConf, Description: "regenerate a zone's signer configuration"},
		{Name: HSMKeyGen, Description: "pre-generate keys on the configured HSM"},
		{Name: ZoneList, Description: "reload the zone list from the zonelist document"},
		{Name: KeyStateList, Description: "recompute key states across all zones"},
		{Name: UpdateKASP, Description: "reload key/signing policy definitions"},
		{Name: UpdateZoneList, Description: "write the zone list back out after a change"},
	} {
		r.Register(kind)
	}
	return r
}

// WithRecurring returns a copy of kind with its Recurring schedule set.
func WithRecurring(kind Kind, s chrono.Schedule) Kind {
	kind.Recurring = s
	return kind
}
