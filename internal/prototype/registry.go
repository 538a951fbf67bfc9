package prototype

import (
	"fmt"
	"sort"
)

// Registry is the read surface the analyzers depend on.
type Registry interface {
	// Get returns the prototype with the given id.
	Get(id string) (Prototype, bool)
	// List returns all prototypes ordered by id.
	List() []Prototype
	// ByFamily returns the prototypes of one family ordered by id.
	ByFamily(f Family) []Prototype
}

// InMemoryRegistry is the standard Registry backed by a map. It is
// immutable after construction and safe for concurrent reads.
type InMemoryRegistry struct {
	byID  map[string]Prototype
	order []string
}

// NewInMemoryRegistry validates every prototype and rejects duplicate
// ids. Registration order does not matter; reads are id-sorted.
func NewInMemoryRegistry(protos []Prototype) (*InMemoryRegistry, error) {
	r := &InMemoryRegistry{byID: make(map[string]Prototype, len(protos))}
	for _, p := range protos {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate prototype id %q", p.ID)
		}
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	sort.Strings(r.order)
	return r, nil
}

func (r *InMemoryRegistry) Get(id string) (Prototype, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *InMemoryRegistry) List() []Prototype {
	out := make([]Prototype, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *InMemoryRegistry) ByFamily(f Family) []Prototype {
	var out []Prototype
	for _, id := range r.order {
		if p := r.byID[id]; p.Family == f {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of registered prototypes.
func (r *InMemoryRegistry) Len() int { return len(r.byID) }
