package ledger

import (
	"sync"
	"time"
)

// SearchDebounce is the quiet period before a search recomputation fires.
const SearchDebounce = 180 * time.Millisecond

// Debouncer coalesces bursts of input events. Each Trigger supersedes the
// previous one; after the quiet period only the latest ticket may fire, and
// only once.
type Debouncer struct {
	mu    sync.Mutex
	wait  time.Duration
	seq   uint64
	fired uint64
}

func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// Wait is the quiet period.
func (d *Debouncer) Wait() time.Duration { return d.wait }

// Trigger records an input event and returns its ticket.
func (d *Debouncer) Trigger() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	return d.seq
}

// Fire reports whether ticket is still the latest and has not fired yet.
func (d *Debouncer) Fire(ticket uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ticket != d.seq || ticket == d.fired {
		return false
	}
	d.fired = ticket
	return true
}
