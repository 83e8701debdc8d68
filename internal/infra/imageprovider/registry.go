package imageprovider

import (
	"fmt"
	"strings"
)

// Registry holds providers in their configured order.
type Registry struct {
	order  []Provider
	byName map[string]Provider
}

// NewRegistry registers providers in the given order. Names must be unique.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{byName: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		name := p.Name()
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate image provider %q", name)
		}
		r.byName[name] = p
		r.order = append(r.order, p)
	}
	return r, nil
}

// All returns every provider in configured order.
func (r *Registry) All() []Provider {
	out := make([]Provider, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns provider names in configured order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, p := range r.order {
		names[i] = p.Name()
	}
	return names
}

// Get returns the provider registered under name (case-insensitive).
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}
