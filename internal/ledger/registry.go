package ledger

import (
	"context"
	"sync"
	"time"
)

type registryEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry keeps one Controller per browser session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry
	factory  func() *Controller
	now      func() time.Time
}

// NewRegistry returns a Registry building controllers with factory.
func NewRegistry(factory func() *Controller) *Registry {
	return &Registry{sessions: make(map[string]*registryEntry), factory: factory, now: time.Now}
}

// Get returns the controller of session id, creating it on first use. The
// second result is true when the controller was just created.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		e = &registryEntry{ctrl: r.factory()}
		r.sessions[id] = e
	}
	e.lastSeen = r.now()
	return e.ctrl, !ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than idle and returns how many went.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	n := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(idle)
		}
	}
}
