// ABOUTME: Notification objects used as undo handles
// ABOUTME: Center tracks active notifications and publishes dismissals

package notify

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Notification is an opaque handle shown to the user. Only its ID and
// Timeout matter to the edit engine.
type Notification struct {
	ID      string
	Title   string
	Content string
	Timeout time.Duration
}

// New creates a notification with a fresh ULID
func New(title, content string, timeout time.Duration) Notification {
	return Notification{
		ID:      ulid.Make().String(),
		Title:   title,
		Content: content,
		Timeout: timeout,
	}
}

// EventType identifies a notification event
type EventType int

const (
	EventAdded EventType = iota
	EventRemoved
	EventRemovedAll
)

// Event is published by the Center. ID is empty for EventRemovedAll.
type Event struct {
	Type EventType
	ID   string
}

// Center keeps the active notifications and fans out events to subscribers.
// Subscribers are called synchronously, outside the center's lock.
type Center struct {
	mu     sync.Mutex
	active []Notification
	subs   map[uint64]func(Event)
	nextID uint64
}

// NewCenter creates an empty notification center
func NewCenter() *Center {
	return &Center{subs: make(map[uint64]func(Event))}
}

// Add registers n as active
func (c *Center) Add(n Notification) Notification {
	c.mu.Lock()
	c.active = append(c.active, n)
	c.mu.Unlock()

	c.publish(Event{Type: EventAdded, ID: n.ID})
	return n
}

// Remove dismisses the notification with the given id. The event is published
// even when the id is not active, matching a user closing a stale toast.
func (c *Center) Remove(id string) {
	c.mu.Lock()
	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.publish(Event{Type: EventRemoved, ID: id})
}

// RemoveAll dismisses every notification
func (c *Center) RemoveAll() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()

	c.publish(Event{Type: EventRemovedAll})
}

// Active returns a copy of the active notifications in insertion order
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}

// Subscribe registers fn for every future event
func (c *Center) Subscribe(fn func(Event)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Center) publish(ev Event) {
	c.mu.Lock()
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
