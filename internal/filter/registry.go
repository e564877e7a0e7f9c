package filter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry holds the filters activated during the life of the process.
// Filters are only ever added. The first load failure is kept and
// reported by Err until the process exits.
type Registry struct {
	mu      sync.Mutex
	catalog Catalog
	loader  *Loader
	active  map[string]Descriptor
	loadErr error
}

// NewRegistry builds an empty registry over catalog.
func NewRegistry(catalog Catalog, loader *Loader) *Registry {
	return &Registry{
		catalog: catalog,
		loader:  loader,
		active:  make(map[string]Descriptor),
	}
}

// Activate loads every catalog entry matched by sel that is not active yet.
// A failing entry does not prevent the others from loading.
func (r *Registry) Activate(sel Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, e := range r.catalog.Matched(sel) {
		if _, ok := r.active[e.Name]; ok {
			continue
		}
		d, err := r.loader.Load(e.Module)
		if err != nil {
			err = fmt.Errorf("filter %q: %w", e.Name, err)
			if r.loadErr == nil {
				r.loadErr = err
			}
			errs = append(errs, err)
			continue
		}
		r.active[e.Name] = *d
	}
	return errors.Join(errs...)
}

// Active returns the active descriptors in application order.
func (r *Registry) Active() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.active))
	for name := range r.active {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.catalog.position(names[i]) < r.catalog.position(names[j])
	})

	out := make([]Descriptor, len(names))
	for i, name := range names {
		out[i] = r.active[name]
	}
	return out
}

// Err returns the first load failure seen by this registry, if any.
func (r *Registry) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadErr
}

// Names returns the names of the active filters in application order.
func (r *Registry) Names() []string {
	active := r.Active()
	names := make([]string, len(active))
	for i, d := range active {
		names[i] = d.Name
	}
	return names
}
