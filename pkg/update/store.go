// ABOUTME: Keyed-by-url state container for edit tracking
// ABOUTME: Dispatches actions through the reducer and notifies listeners in order

package update

import (
	"sync"
	"sync/atomic"
)

// Listener receives every new state
type Listener func(State)

// Observer receives every applied action, after listeners saw its state
type Observer func(Action)

type listener struct {
	fn        Listener
	last      atomic.Uint64
	cancelled atomic.Bool
}

// deliver calls fn unless a newer version was already delivered
func (l *listener) deliver(state State, version uint64) {
	if l.cancelled.Load() {
		return
	}
	for {
		last := l.last.Load()
		if version <= last {
			return
		}
		if l.last.CompareAndSwap(last, version) {
			break
		}
	}
	l.fn(state)
}

type delivery struct {
	action  Action
	state   State
	version uint64
}

// Store holds the State of every tracked url.
//
// Dispatch applies an action under the store lock and then queues the
// resulting state for notification. Notifications are drained in dispatch
// order by whichever caller finds the queue idle, so listeners and observers
// may dispatch further actions without deadlocking; those are delivered after
// the current one.
type Store struct {
	mu        sync.Mutex
	state     State
	version   uint64
	listeners map[uint64]*listener
	observers []Observer
	nextID    uint64

	queue    []delivery
	draining bool
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		state:     State{},
		listeners: make(map[uint64]*listener),
	}
}

// State returns the current state. The returned map must not be modified.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action. A rejected action leaves the state untouched and
// notifies nobody.
func (s *Store) Dispatch(action Action) error {
	s.mu.Lock()
	next, err := Reduce(s.state, action)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	s.version++
	s.queue = append(s.queue, delivery{action: action, state: next, version: s.version})
	if s.draining {
		s.mu.Unlock()
		return nil
	}
	s.draining = true
	s.mu.Unlock()

	s.drain()
	return nil
}

func (s *Store) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		d := s.queue[0]
		s.queue = s.queue[1:]
		listeners := make([]*listener, 0, len(s.listeners))
		for _, l := range s.listeners {
			listeners = append(listeners, l)
		}
		observers := s.observers
		s.mu.Unlock()

		for _, l := range listeners {
			l.deliver(d.state, d.version)
		}
		for _, o := range observers {
			o(d.action)
		}
	}
}

// Subscribe registers fn, calls it once with the current state and then with
// every later state
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	l := &listener{fn: fn}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	state, version := s.state, s.version
	s.mu.Unlock()

	// version 0 is the empty initial state; deliver it unconditionally
	if version == 0 {
		l.fn(state)
	} else {
		l.deliver(state, version)
	}

	return func() {
		l.cancelled.Store(true)
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Observe registers fn for every applied action. Observers cannot be removed;
// they live as long as the store.
func (s *Store) Observe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}
