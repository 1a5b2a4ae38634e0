package algorithm

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a fresh algorithm instance.
type Factory func() Algorithm

// Registry maps algorithm names to factories.
//
// Description:
//
//	Built once at process start and passed to whatever needs to resolve
//	algorithms by name. Names are case-insensitive.
//
// Thread Safety: Safe for concurrent use via read-write mutex.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry holding every built-in algorithm.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("dbscan", func() Algorithm { return &DBSCAN{} })
	r.MustRegister("k-means", func() Algorithm { return &KMeans{} })
	r.MustRegister("affinity-propagation", func() Algorithm { return &AffinityPropagation{} })
	r.MustRegister("cure", func() Algorithm { return &CURE{} })
	r.MustRegister("agglomerative", func() Algorithm { return &Agglomerative{} })
	r.MustRegister("hdbscan", func() Algorithm { return &HDBSCAN{} })
	return r
}

// Register adds a factory under name.
//
// Outputs:
//   - error: ErrAlreadyRegistered if name is taken.
func (r *Registry) Register(name string, f Factory) error {
	key := normalizeName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.factories[key] = f
	return nil
}

// MustRegister is Register for use during startup; it panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Get returns a new instance of the named algorithm.
//
// Outputs:
//   - error: ErrUnknown if nothing is registered under name.
func (r *Registry) Get(name string) (Algorithm, error) {
	r.mu.RLock()
	f, ok := r.factories[normalizeName(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return f(), nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
