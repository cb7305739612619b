package projection

import (
	"fmt"
	"sort"
)

// Registry is built once from a static list and never changes.
type Registry struct {
	contracts map[Name]Contract
}

// NewRegistry rejects names outside the closed set and duplicates.
func NewRegistry(defs ...Contract) (*Registry, error) {
	contracts := make(map[Name]Contract, len(defs))
	for _, d := range defs {
		if d == nil {
			return nil, fmt.Errorf("projection registry: nil contract")
		}
		name := d.Name()
		if !name.Valid() {
			return nil, fmt.Errorf("projection registry: %q is not a known projection name", name)
		}
		if _, dup := contracts[name]; dup {
			return nil, fmt.Errorf("projection registry: duplicate contract %q", name)
		}
		contracts[name] = d
	}
	return &Registry{contracts: contracts}, nil
}

func (r *Registry) Get(name Name) (Contract, error) {
	c, ok := r.contracts[name]
	if !ok {
		return nil, &UnknownProjectionError{Name: name}
	}
	return c, nil
}

// List returns registered names in sorted order.
func (r *Registry) List() []Name {
	out := make([]Name, 0, len(r.contracts))
	for name := range r.contracts {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
