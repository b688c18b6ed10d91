// ABOUTME: Explicit handler registry keyed by entity, representation and context
// ABOUTME: Lookups fall back to defaults in a fixed precedence

package registry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicate is returned when a key is registered twice
var ErrDuplicate = errors.New("registry: key already registered")

// Key addresses a handler
type Key struct {
	EntityType     string
	Representation string
	Context        string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.EntityType, k.Representation, k.Context)
}

// Registry maps keys to handlers. It is built once at startup and handed to
// whoever needs lookups; it is safe for concurrent use.
type Registry[V any] struct {
	defaults Key

	mu      sync.RWMutex
	entries map[Key]V
}

// New creates a registry whose fallbacks use the fields of defaults
func New[V any](defaults Key) *Registry[V] {
	return &Registry[V]{
		defaults: defaults,
		entries:  make(map[Key]V),
	}
}

// Defaults returns the fallback key
func (r *Registry[V]) Defaults() Key {
	return r.defaults
}

// Register adds v under key
func (r *Registry[V]) Register(key Key, v V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	r.entries[key] = v
	return nil
}

// MustRegister is Register for startup wiring; it panics on duplicates
func (r *Registry[V]) MustRegister(key Key, v V) {
	if err := r.Register(key, v); err != nil {
		panic(err)
	}
}

// Lookup finds the handler for key, trying in order:
//
//  1. the exact key
//  2. the key with the default context
//  3. the default representation, with the requested then default context
//  4. the default entity type, representation and context
func (r *Registry[V]) Lookup(key Key) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := r.defaults
	candidates := []Key{
		key,
		{key.EntityType, key.Representation, d.Context},
		{key.EntityType, d.Representation, key.Context},
		{key.EntityType, d.Representation, d.Context},
		d,
	}
	for _, k := range candidates {
		if v, ok := r.entries[k]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Len returns the number of registered handlers
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
