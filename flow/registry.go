package flow

import (
	"fmt"
	"sort"
	"sync"
)

// A Constructor creates a policy from its parameters.
type Constructor[T any] func(params Params) (T, error)

// A Registry maps names to policy constructors. Policies are resolved once
// when an element is built and kept for the lifetime of the element.
type Registry[T any] struct {
	kind string

	mu           sync.RWMutex
	constructors map[string]Constructor[T]
}

// NewRegistry creates an empty registry. The kind names the policies in
// error messages.
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:         kind,
		constructors: make(map[string]Constructor[T]),
	}
}

// MustRegister registers a constructor and panics if the name is taken.
func (r *Registry[T]) MustRegister(name string, c Constructor[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.constructors[name]; ok {
		panic(fmt.Sprintf("%s already registered with name %q", r.kind, name))
	}

	r.constructors[name] = c
}

// New creates the policy registered under the name.
func (r *Registry[T]) New(name string, params Params) (T, error) {
	r.mu.RLock()
	c, ok := r.constructors[name]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("no %s registered with name %q", r.kind, name)
	}

	return c(params)
}

// Names returns the registered names in alphabetical order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
