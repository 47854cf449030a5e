package globals

// Requirements is the per-chunk flag accumulator.
//
// It only grows while requirements are being resolved and becomes read-only
// once Freeze is called. A Requirements value is owned by exactly one chunk
// task; it is not safe for concurrent mutation.
type Requirements struct {
	set    RuntimeGlobals
	frozen bool
}

// NewRequirements creates an accumulator seeded with initial.
func NewRequirements(initial RuntimeGlobals) *Requirements {
	return &Requirements{set: initial}
}

// Add unions flags into the accumulator and reports whether the set grew.
//
// Panics if the accumulator has been frozen: a write after freeze means a
// hook ran outside the resolution phase.
func (r *Requirements) Add(flags RuntimeGlobals) bool {
	if r.frozen {
		panic("globals: Add on frozen requirements " + flags.String())
	}
	before := r.set
	r.set = r.set.Add(flags)
	return r.set != before
}

// Has reports whether every flag in flags is present.
func (r *Requirements) Has(flags RuntimeGlobals) bool {
	return r.set.Has(flags)
}

// Snapshot returns the current set by value.
func (r *Requirements) Snapshot() RuntimeGlobals {
	return r.set
}

// Freeze makes the accumulator read-only.
func (r *Requirements) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Requirements) Frozen() bool {
	return r.frozen
}
