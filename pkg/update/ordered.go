package update

import (
	"iter"
	"slices"
)

// Ordered is an immutable string-keyed map that remembers insertion order.
// With and Without return modified copies; the receiver is never changed, so
// an Ordered can be shared between entries safely.
type Ordered[V any] struct {
	keys []string
	vals map[string]V
}

// Len returns the number of keys
func (o Ordered[V]) Len() int {
	return len(o.keys)
}

// Get returns the value stored under key
func (o Ordered[V]) Get(key string) (V, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Has reports whether key is present
func (o Ordered[V]) Has(key string) bool {
	_, ok := o.vals[key]
	return ok
}

// Keys returns the keys in insertion order
func (o Ordered[V]) Keys() []string {
	return slices.Clone(o.keys)
}

// All iterates key/value pairs in insertion order
func (o Ordered[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

// With returns a copy with key set to v. An existing key keeps its position.
func (o Ordered[V]) With(key string, v V) Ordered[V] {
	out := Ordered[V]{
		keys: slices.Clone(o.keys),
		vals: make(map[string]V, len(o.vals)+1),
	}
	for k, val := range o.vals {
		out.vals[k] = val
	}
	if _, ok := out.vals[key]; !ok {
		out.keys = append(out.keys, key)
	}
	out.vals[key] = v
	return out
}

// Without returns a copy with key removed
func (o Ordered[V]) Without(key string) Ordered[V] {
	if !o.Has(key) {
		return o
	}
	out := Ordered[V]{
		keys: make([]string, 0, len(o.keys)-1),
		vals: make(map[string]V, len(o.vals)-1),
	}
	for _, k := range o.keys {
		if k == key {
			continue
		}
		out.keys = append(out.keys, k)
		out.vals[k] = o.vals[k]
	}
	return out
}

// Filter returns a copy holding only the pairs keep accepts
func (o Ordered[V]) Filter(keep func(string, V) bool) Ordered[V] {
	out := Ordered[V]{vals: make(map[string]V, len(o.vals))}
	for _, k := range o.keys {
		v := o.vals[k]
		if keep(k, v) {
			out.keys = append(out.keys, k)
			out.vals[k] = v
		}
	}
	return out
}

// Map returns a copy with every value replaced by fn's result
func (o Ordered[V]) Map(fn func(string, V) V) Ordered[V] {
	out := Ordered[V]{
		keys: slices.Clone(o.keys),
		vals: make(map[string]V, len(o.vals)),
	}
	for _, k := range o.keys {
		out.vals[k] = fn(k, o.vals[k])
	}
	return out
}
