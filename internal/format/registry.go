package format

import (
	"fmt"
	"slices"
	"sync"
)

// Factory creates a plugin instance.
type Factory func() Plugin

// Registry maps plugin names to factories.
// Thread-safe: may be shared across goroutines.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry holding the built-in plugins.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(CommonJSName, func() Plugin { return NewCommonJsChunkFormat() })
	r.MustRegister(ModuleChunkLoadingName, func() Plugin { return NewModuleChunkLoading() })
	r.MustRegister(CommonJSLibraryName, func() Plugin { return NewCommonJSLibrary() })
	return r
}

// Register adds a factory. Names must be unique.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("plugin name is empty")
	}
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// New instantiates the plugin registered under name.
func (r *Registry) New(name string) (Plugin, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown plugin %q (known: %v)", name, r.Names())
	}
	return f(), nil
}

// Select instantiates plugins by name, in the order given. Empty names are
// skipped so optional configuration slots can be passed through as-is.
func (r *Registry) Select(names ...string) ([]Plugin, error) {
	var plugins []Plugin
	for _, name := range names {
		if name == "" {
			continue
		}
		p, err := r.New(name)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// Names returns registered plugin names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
