package ledger

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-deliveries/internal/models"
)

// DateFilter holds the raw YYYY-MM-DD bounds of the deliveries view.
// Blank means unbounded.
type DateFilter struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PanelState is everything the info panel shows for the selected location.
type PanelState struct {
	Deliveries     []models.Delivery
	Loaded         bool
	ListFailed     bool
	TotalPeriod    decimal.Decimal
	TotalAll       decimal.Decimal
	TotalAllFailed bool
	Filter         DateFilter
	Form           PriceForm
}

// Snapshot is a copy of the session state safe to read without locking.
type Snapshot struct {
	Locations       []models.Location
	LocationsLoaded bool
	LocationsFailed bool
	Search          string
	Selected        *models.Location
	Panel           PanelState
}

// Session is the UI state of one user: the cached locations, the selection
// and the info panel. The lock is never held across a store call.
type Session struct {
	mu              sync.Mutex
	locations       []models.Location
	locationsLoaded bool
	locationsFailed bool
	search          string
	selected        *models.Location
	panel           PanelState
	busy            map[string]bool
}

func newSession() *Session {
	return &Session{busy: make(map[string]bool)}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Locations:       slices.Clone(s.locations),
		LocationsLoaded: s.locationsLoaded,
		LocationsFailed: s.locationsFailed,
		Search:          s.search,
		Panel:           s.panel,
	}
	snap.Panel.Deliveries = slices.Clone(s.panel.Deliveries)
	if s.selected != nil {
		sel := *s.selected
		snap.Selected = &sel
	}
	return snap
}

// SelectedID returns the id of the selected location, or 0.
func (s *Session) SelectedID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return 0
	}
	return s.selected.ID
}

func (s *Session) findLocation(id int64) (models.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findByID(s.locations, id)
}

// updatePanel applies fn when locationID is still the selection. Responses
// for a location the user has already left are dropped.
func (s *Session) updatePanel(locationID int64, fn func(p *PanelState)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil || s.selected.ID != locationID {
		return false
	}
	fn(&s.panel)
	return true
}

// begin marks control as in flight. A second call before end returns ErrBusy.
func (s *Session) begin(control string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[control] {
		return ErrBusy
	}
	s.busy[control] = true
	return nil
}

func (s *Session) end(control string) {
	s.mu.Lock()
	delete(s.busy, control)
	s.mu.Unlock()
}
