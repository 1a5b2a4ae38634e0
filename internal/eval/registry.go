package eval

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknown is returned when no criterion is registered under a name.
	ErrUnknown = errors.New("eval: unknown criterion")

	// ErrAlreadyRegistered is returned when a name is registered twice.
	ErrAlreadyRegistered = errors.New("eval: already registered")
)

// Registry maps criterion names to criteria. Criteria are stateless, so the
// registry hands out shared instances. Names are case-insensitive.
type Registry struct {
	mu       sync.RWMutex
	criteria map[string]Criterion
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{criteria: make(map[string]Criterion)}
}

// DefaultRegistry returns a registry holding every built-in criterion.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NewSilhouette())
	r.MustRegister(NewDaviesBouldin())
	r.MustRegister(NewCalinskiHarabasz())
	r.MustRegister(NewDunn())
	r.MustRegister(NewNMISqrt())
	r.MustRegister(NewAdjustedRand())
	r.MustRegister(NewJaccard())
	return r
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds c under its name.
func (r *Registry) Register(c Criterion) error {
	k := key(c.Name())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.criteria[k]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, c.Name())
	}
	r.criteria[k] = c
	r.order = append(r.order, k)
	return nil
}

// MustRegister is Register for use during startup; it panics on error.
func (r *Registry) MustRegister(c Criterion) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get returns the named criterion.
func (r *Registry) Get(name string) (Criterion, error) {
	r.mu.RLock()
	c, ok := r.criteria[key(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return c, nil
}

// Lookup resolves several names at once, failing on the first unknown one.
func (r *Registry) Lookup(names ...string) ([]Criterion, error) {
	out := make([]Criterion, 0, len(names))
	for _, n := range names {
		c, err := r.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// List returns the registered display names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.criteria))
	for _, c := range r.criteria {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}

// Internal returns the internal criteria in registration order.
func (r *Registry) Internal() []Criterion { return r.filter(false) }

// External returns the external criteria in registration order.
func (r *Registry) External() []Criterion { return r.filter(true) }

func (r *Registry) filter(external bool) []Criterion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Criterion
	for _, k := range r.order {
		if c := r.criteria[k]; c.IsExternal() == external {
			out = append(out, c)
		}
	}
	return out
}
