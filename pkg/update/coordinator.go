// ABOUTME: Resolves the undo window opened by a discard
// ABOUTME: First of timeout, next url action or dismissal decides the trash fate

package update

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nainya/editstore/pkg/notify"
)

// Outcome is how an undo window was closed
type Outcome string

const (
	// OutcomeTimeout: the undo timeout elapsed
	OutcomeTimeout Outcome = "timeout"
	// OutcomeReinstated: the user reinstated the discarded edits
	OutcomeReinstated Outcome = "reinstated"
	// OutcomeAbandoned: another action for the url arrived first
	OutcomeAbandoned Outcome = "abandoned"
	// OutcomeDismissed: the undo notification was dismissed
	OutcomeDismissed Outcome = "dismissed"
	// OutcomeDismissedAll: every notification was dismissed
	OutcomeDismissedAll Outcome = "dismissed_all"
	// OutcomeSuperseded: a newer discard for the same url replaced the window
	OutcomeSuperseded Outcome = "superseded"
)

// Commits reports whether the outcome permanently drops the trash
func (o Outcome) Commits() bool {
	return o != OutcomeReinstated && o != OutcomeSuperseded
}

type pendingUndo struct {
	url          string
	notification notify.Notification
	commit       Action

	actions   chan Action
	dismissed chan Outcome
	done      chan struct{}
}

// Coordinator watches discards and races, per url, the undo timeout against
// the next action filed for that url and notification dismissals. The first
// event wins; the others are dropped.
type Coordinator struct {
	dispatch  func(Action) error
	center    *notify.Center
	log       zerolog.Logger
	onResolve func(url string, outcome Outcome)

	mu           sync.Mutex
	pending      map[string]*pendingUndo
	closed       bool
	cancelEvents func()
	wg           sync.WaitGroup
}

// NewCoordinator attaches a coordinator to store. Commit-removals are sent
// through dispatch. center may be nil when no dismissals can happen.
func NewCoordinator(store *Store, dispatch func(Action) error, center *notify.Center, log zerolog.Logger, onResolve func(string, Outcome)) *Coordinator {
	c := &Coordinator{
		dispatch:  dispatch,
		center:    center,
		log:       log,
		onResolve: onResolve,
		pending:   make(map[string]*pendingUndo),
	}
	if c.dispatch == nil {
		c.dispatch = store.Dispatch
	}
	if center != nil {
		c.cancelEvents = center.Subscribe(c.onNotification)
	}
	store.Observe(c.observe)
	return c
}

// Pending reports whether an undo window is open for url
func (c *Coordinator) Pending(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[url]
	return ok
}

// Close abandons every open window without committing and waits for the
// racing goroutines to exit
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	for url, p := range c.pending {
		close(p.done)
		delete(c.pending, url)
	}
	c.mu.Unlock()

	if c.cancelEvents != nil {
		c.cancelEvents()
	}
	c.wg.Wait()
}

func (c *Coordinator) observe(a Action) {
	if d, ok := a.(Discard); ok {
		c.start(d)
		return
	}

	c.mu.Lock()
	p := c.pending[a.URL()]
	c.mu.Unlock()
	if p == nil {
		return
	}

	select {
	case p.actions <- a:
	default:
	}
}

func (c *Coordinator) start(d Discard) {
	var commit Action = Remove{Url: d.Url}
	if d.All {
		commit = RemoveAll{}
	}
	p := &pendingUndo{
		url:          d.Url,
		notification: d.Notification,
		commit:       commit,
		actions:      make(chan Action, 1),
		dismissed:    make(chan Outcome, 1),
		done:         make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prev := c.pending[d.Url]
	if prev != nil {
		close(prev.done)
	}
	c.pending[d.Url] = p
	immediate := d.Notification.Timeout <= 0
	if !immediate {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if prev != nil {
		c.report(prev, OutcomeSuperseded)
	}

	if immediate {
		c.resolve(p, OutcomeTimeout)
		return
	}
	go c.race(p)
}

func (c *Coordinator) race(p *pendingUndo) {
	defer c.wg.Done()

	timer := time.NewTimer(p.notification.Timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		c.resolve(p, OutcomeTimeout)
	case a := <-p.actions:
		if c.center != nil {
			c.center.Remove(p.notification.ID)
		}
		if a.Type() == ActionReinstate {
			c.resolve(p, OutcomeReinstated)
		} else {
			c.resolve(p, OutcomeAbandoned)
		}
	case o := <-p.dismissed:
		c.resolve(p, o)
	case <-p.done:
	}
}

func (c *Coordinator) resolve(p *pendingUndo, outcome Outcome) {
	c.mu.Lock()
	if c.pending[p.url] != p {
		c.mu.Unlock()
		return
	}
	delete(c.pending, p.url)
	c.mu.Unlock()

	c.report(p, outcome)
	if !outcome.Commits() {
		return
	}
	if err := c.dispatch(p.commit); err != nil {
		c.log.Error().Err(err).Str("url", p.url).Msg("failed to commit discarded updates")
	}
}

func (c *Coordinator) report(p *pendingUndo, outcome Outcome) {
	c.log.Info().
		Str("url", p.url).
		Str("notification", p.notification.ID).
		Str("outcome", string(outcome)).
		Msg("undo window closed")
	if c.onResolve != nil {
		c.onResolve(p.url, outcome)
	}
}

func (c *Coordinator) onNotification(ev notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.pending {
		var outcome Outcome
		switch {
		case ev.Type == notify.EventRemoved && ev.ID == p.notification.ID:
			outcome = OutcomeDismissed
		case ev.Type == notify.EventRemovedAll:
			outcome = OutcomeDismissedAll
		default:
			continue
		}
		select {
		case p.dismissed <- outcome:
		default:
		}
	}
}
