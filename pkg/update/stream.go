package update

import (
	"reflect"
	"sync"
)

// Stream is a live projection of the store
type Stream[T any] struct {
	store   *Store
	project func(State) T
	equal   func(a, b T) bool
}

// NewStream projects the store through project. Consecutive values that are
// equal are delivered once; a nil equal uses reflect.DeepEqual.
func NewStream[T any](store *Store, project func(State) T, equal func(a, b T) bool) Stream[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return Stream[T]{store: store, project: project, equal: equal}
}

// Value returns the projection of the current state
func (s Stream[T]) Value() T {
	return s.project(s.store.State())
}

// Subscribe calls fn with the current value and with every distinct later value
func (s Stream[T]) Subscribe(fn func(T)) (cancel func()) {
	var (
		mu   sync.Mutex
		last T
		seen bool
	)
	return s.store.Subscribe(func(state State) {
		v := s.project(state)

		mu.Lock()
		if seen && s.equal(last, v) {
			mu.Unlock()
			return
		}
		last, seen = v, true
		mu.Unlock()

		fn(v)
	})
}

func equalBool(a, b bool) bool { return a == b }
