package tools

import (
	"fmt"
)

// Registry is the immutable set of tools served by the process. It is
// built once with NewRegistry and has no mutating methods, so lookups are
// safe from any number of goroutines.
type Registry struct {
	tools []Descriptor
	index map[string]int
}

// NewRegistry builds a registry from descriptors, preserving their order.
// Empty or duplicate tool names, empty or duplicate parameter names and
// missing implementations are rejected.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		tools: make([]Descriptor, 0, len(descriptors)),
		index: make(map[string]int, len(descriptors)),
	}

	for _, d := range descriptors {
		if err := validateDescriptor(d); err != nil {
			return nil, err
		}
		if _, exists := r.index[d.Name]; exists {
			return nil, fmt.Errorf("tool %s already registered", d.Name)
		}

		d.Parameters = append([]Parameter(nil), d.Parameters...)
		r.index[d.Name] = len(r.tools)
		r.tools = append(r.tools, d)
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on an invalid descriptor
func MustNewRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the tool registered under name
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i, ok := r.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.tools[i], true
}

// List returns all tools in registration order
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.tools))
	copy(out, r.tools)
	return out
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return len(r.tools)
}

// Names returns the tool names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, d := range r.tools {
		names[i] = d.Name
	}
	return names
}

func validateDescriptor(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if d.Invoke == nil {
		return fmt.Errorf("tool %s has no implementation", d.Name)
	}

	seen := make(map[string]bool, len(d.Parameters))
	for i, p := range d.Parameters {
		if p.Name == "" {
			return fmt.Errorf("tool %s: parameter %d has no name", d.Name, i)
		}
		if seen[p.Name] {
			return fmt.Errorf("tool %s: duplicate parameter %s", d.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
