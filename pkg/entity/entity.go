// Package entity holds the field mappings of every synced vendor entity.
package entity

import (
	"fmt"
	"sort"

	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// Spec is a syncer.Spec plus where its records are persisted.
type Spec struct {
	syncer.Spec

	// Table is the destination table and the CSV file stem.
	Table string
	// Key is the natural key column. Rows with a known key are updated in place.
	Key string
	// DateColumn holds the watermark date of windowed entities.
	DateColumn string
	// Children are fetched from link columns once the parent run finished.
	Children []*syncer.ChildSpec
}

// ChildTable wraps a child spec so it can be handed to the sinks.
func ChildTable(c *syncer.ChildSpec) *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:   c.Name,
			Fields: append(append([]syncer.Field(nil), c.ParentKeys...), c.Fields...),
		},
		Table: c.Name,
	}
}

// Registry looks up entity specs by name.
type Registry struct {
	specs map[string]*Spec
}

// NewRegistry creates a registry holding specs. Later specs replace earlier
// ones with the same name.
func NewRegistry(specs ...*Spec) *Registry {
	r := &Registry{specs: make(map[string]*Spec, len(specs))}
	r.Merge(specs...)
	return r
}

// Default returns a registry with the built-in entities.
func Default() *Registry {
	return NewRegistry(Builtin()...)
}

// Merge adds specs, replacing existing entries with the same name.
func (r *Registry) Merge(specs ...*Spec) {
	for _, s := range specs {
		r.specs[s.Name] = s
	}
}

// Get returns the spec registered under name.
func (r *Registry) Get(name string) (*Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", name)
	}
	return s, nil
}

// Select resolves names in order. Unknown names fail the whole selection.
func (r *Registry) Select(names []string) ([]*Spec, error) {
	out := make([]*Spec, 0, len(names))
	for _, n := range names {
		s, err := r.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Names returns all registered entity names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
