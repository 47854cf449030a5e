// Package runtimemodule holds synthesized runtime modules and the per-chunk
// registry that collects them while requirements are resolved.
package runtimemodule

import (
	"slices"
)

// RuntimeModule is a synthesized code unit providing one runtime capability.
type RuntimeModule interface {
	// Name identifies the module kind, e.g. "webpack/runtime/export_require".
	// A registry holds at most one module per name.
	Name() string

	// Generate returns the module's code.
	Generate() string
}

// Registry is a chunk's ordered runtime-module list.
//
// Modules render in registration order. The registry is append-only: a
// module is never removed or moved, only replaced in its original slot when
// a parameterized module is re-registered with different code.
//
// A Registry is owned by one chunk task and is not safe for concurrent use.
type Registry struct {
	modules []RuntimeModule
	index   map[string]int
	version int
	frozen  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add registers m and reports whether the registry changed.
//
// Re-adding a module whose name and generated code match an existing entry
// is a no-op. Re-adding under an existing name with different code replaces
// the entry in place. Panics after Freeze.
func (r *Registry) Add(m RuntimeModule) bool {
	if r.frozen {
		panic("runtimemodule: Add on frozen registry " + m.Name())
	}
	if i, ok := r.index[m.Name()]; ok {
		if r.modules[i].Generate() == m.Generate() {
			return false
		}
		r.modules[i] = m
		r.version++
		return true
	}
	r.index[m.Name()] = len(r.modules)
	r.modules = append(r.modules, m)
	r.version++
	return true
}

// Get returns the module registered under name.
func (r *Registry) Get(name string) (RuntimeModule, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.modules[i], true
}

// Modules returns the registered modules in registration order.
func (r *Registry) Modules() []RuntimeModule {
	return slices.Clone(r.modules)
}

// Names returns module names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.modules))
	for i, m := range r.modules {
		names[i] = m.Name()
	}
	return names
}

// Version counts changes made by Add. Two equal versions mean nothing was
// added or replaced in between.
func (r *Registry) Version() int {
	return r.version
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.frozen = true
}
