package qpoly

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agbru/qsag/internal/numconf"
	"github.com/agbru/qsag/internal/pupil"
)

// Registry maps family names to lazily created bases. All bases created by a
// registry share its grid provider and numeric settings.
type Registry struct {
	mu       sync.RWMutex
	grids    pupil.GridProvider
	settings *numconf.Settings
	creators map[string]func(pupil.GridProvider, *numconf.Settings) Basis
	bases    map[string]Basis
}

// NewRegistry creates a registry with "qbfs" and "qcon" pre-registered.
//
// Parameters:
//   - grids: The grid provider; nil selects pupil.Cartesian.
//   - settings: The numeric settings; nil selects numconf.Default().
func NewRegistry(grids pupil.GridProvider, settings *numconf.Settings) *Registry {
	if grids == nil {
		grids = pupil.NewCartesian()
	}
	if settings == nil {
		settings = numconf.Default()
	}
	r := &Registry{
		grids:    grids,
		settings: settings,
		creators: make(map[string]func(pupil.GridProvider, *numconf.Settings) Basis),
		bases:    make(map[string]Basis),
	}
	r.Register(FamilyQbfs, func(g pupil.GridProvider, s *numconf.Settings) Basis { return NewQbfsCache(g, s) })
	r.Register(FamilyQcon, func(g pupil.GridProvider, s *numconf.Settings) Basis { return NewQconCache(g, s) })
	return r
}

// Register adds or replaces a family. A replaced family's existing basis is
// detached from the settings and dropped so the next Get uses the new creator.
func (r *Registry) Register(name string, creator func(pupil.GridProvider, *numconf.Settings) Basis) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creators[name] = creator
	if old, ok := r.bases[name]; ok {
		if d, ok := old.(interface{ Detach() }); ok {
			d.Detach()
		}
		delete(r.bases, name)
	}
}

// Get returns the basis for name, creating it on first use.
func (r *Registry) Get(name string) (Basis, error) {
	r.mu.RLock()
	if b, ok := r.bases[name]; ok {
		r.mu.RUnlock()
		return b, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bases[name]; ok {
		return b, nil
	}
	creator, ok := r.creators[name]
	if !ok {
		return nil, fmt.Errorf("unknown polynomial family: %s", name)
	}
	b := creator(r.grids, r.settings)
	r.bases[name] = b
	return b, nil
}

// MustGet is like Get but panics for unknown families.
func (r *Registry) MustGet(name string) Basis {
	b, err := r.Get(name)
	if err != nil {
		panic(fmt.Sprintf("qpoly: required family not found: %s", name))
	}
	return b
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.creators[name]
	return ok
}

// List returns the registered family names in alphabetical order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll creates any missing bases and returns a copy of the name → basis map.
func (r *Registry) GetAll() map[string]Basis {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, creator := range r.creators {
		if _, ok := r.bases[name]; !ok {
			r.bases[name] = creator(r.grids, r.settings)
		}
	}
	out := make(map[string]Basis, len(r.bases))
	for name, b := range r.bases {
		out[name] = b
	}
	return out
}

// ClearAll empties the cache of every created basis.
func (r *Registry) ClearAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bases {
		b.Clear()
	}
}

// Settings returns the numeric settings shared by the registry's bases.
func (r *Registry) Settings() *numconf.Settings { return r.settings }

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// GlobalRegistry returns the process-wide registry over the Cartesian grid
// provider and numconf.Default().
func GlobalRegistry() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewRegistry(nil, nil)
	})
	return globalRegistry
}
