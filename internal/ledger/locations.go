package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/diewo77/go-deliveries/internal/models"
	"github.com/diewo77/go-deliveries/internal/store"
	"github.com/diewo77/go-deliveries/validation"
)

// LocationPanel manages the cached location list.
type LocationPanel struct {
	store   store.TableStore
	session *Session
	opts    Options
}

// FetchAll reloads every location ordered by id and replaces the cache.
// On failure the cache is emptied and the failure flag set; the error is
// logged, not returned. A selection that no longer exists is dropped.
func (p *LocationPanel) FetchAll(ctx context.Context) []models.Location {
	var rows []models.Location
	err := p.store.Select(ctx, store.Query{Table: "locations", Order: &store.Order{Column: "id"}}, &rows)

	s := p.session
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locationsLoaded = true
	if err != nil {
		logStoreError(p.opts.Logger, "fetch locations", err)
		s.locations = nil
		s.locationsFailed = true
		return nil
	}
	s.locations = rows
	s.locationsFailed = false
	if s.selected != nil {
		if l, ok := findByID(rows, s.selected.ID); ok {
			s.selected = &l
		} else {
			s.selected = nil
			s.panel = PanelState{Form: PriceForm{Date: DateValue(p.opts.Now(), p.opts.Location)}}
		}
	}
	return rows
}

// Add inserts a location and appends the stored row to the cache. Name and
// city are required; the address may be blank.
func (p *LocationPanel) Add(ctx context.Context, name, address, city string) (*models.Location, error) {
	name, address, city = strings.TrimSpace(name), strings.TrimSpace(address), strings.TrimSpace(city)
	v := validation.Violations{}
	validation.Required("name", name, v)
	validation.Required("city", city, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}

	if err := p.session.begin("save-location"); err != nil {
		return nil, err
	}
	defer p.session.end("save-location")

	loc := &models.Location{Name: name, Address: address, City: city}
	if err := p.store.Insert(ctx, "locations", loc); err != nil {
		logStoreError(p.opts.Logger, "insert location", err)
		return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	p.session.mu.Lock()
	p.session.locations = append(p.session.locations, *loc)
	p.session.locationsLoaded = true
	p.session.mu.Unlock()
	return loc, nil
}

// Remove deletes a location after confirmation and drops it from the cache.
// It reports false when the user declined. A location already gone from the
// store counts as removed.
// Removing the selected location clears the selection and the info panel.
func (p *LocationPanel) Remove(ctx context.Context, id int64, c Confirmer) (bool, error) {
	loc, _ := p.session.findLocation(id)
	if !c.Confirm(Prompt{Code: "confirm_delete_location", Args: []any{loc.Name}}) {
		return false, nil
	}

	if err := p.session.begin("delete-location"); err != nil {
		return false, err
	}
	defer p.session.end("delete-location")

	err := p.store.Delete(ctx, "locations", store.Eq("id", id))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logStoreError(p.opts.Logger, "delete location", err)
		return false, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	s := p.session
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = slices.DeleteFunc(s.locations, func(l models.Location) bool { return l.ID == id })
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
		s.panel = PanelState{Form: PriceForm{Date: DateValue(p.opts.Now(), p.opts.Location)}}
	}
	return true, nil
}

// Search stores the list filter text.
func (p *LocationPanel) Search(q string) {
	p.session.mu.Lock()
	p.session.search = q
	p.session.mu.Unlock()
}

// Visible returns the cached locations matching the current search.
func (p *LocationPanel) Visible() []models.Location {
	snap := p.session.Snapshot()
	return FilterLocations(snap.Locations, snap.Search)
}

// FilterLocations keeps the locations whose name, address or city contains
// q, case-insensitively. A blank q keeps everything.
func FilterLocations(locs []models.Location, q string) []models.Location {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return locs
	}
	out := make([]models.Location, 0, len(locs))
	for _, l := range locs {
		if strings.Contains(strings.ToLower(l.Name), q) ||
			strings.Contains(strings.ToLower(l.Address), q) ||
			strings.Contains(strings.ToLower(l.City), q) {
			out = append(out, l)
		}
	}
	return out
}

func findByID(locs []models.Location, id int64) (models.Location, bool) {
	for _, l := range locs {
		if l.ID == id {
			return l, true
		}
	}
	return models.Location{}, false
}
