package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-deliveries/internal/models"
	"github.com/diewo77/go-deliveries/internal/store"
	"github.com/diewo77/go-deliveries/validation"
)

// DeliveryPanel manages the info panel of the selected location.
type DeliveryPanel struct {
	store   store.TableStore
	session *Session
	opts    Options
}

// Select makes the cached location id active, resets the form and the
// filter inputs, and loads its full history.
func (p *DeliveryPanel) Select(ctx context.Context, id int64) error {
	loc, ok := p.session.findLocation(id)
	if !ok {
		return ErrLocationNotFound
	}
	s := p.session
	s.mu.Lock()
	s.selected = &loc
	s.panel = PanelState{Form: PriceForm{Date: DateValue(p.opts.Now(), p.opts.Location)}}
	s.mu.Unlock()

	p.Load(ctx, id, "", "")
	return nil
}

// Load fetches the deliveries of locationID, newest first, optionally
// bounded by the inclusive local dates start and end (YYYY-MM-DD, blank for
// unbounded), and recomputes both totals. The result is dropped when the
// selection changed meanwhile.
func (p *DeliveryPanel) Load(ctx context.Context, locationID int64, start, end string) {
	if locationID == 0 {
		return
	}
	filters := []store.Filter{store.Eq("location_id", locationID)}
	if start = strings.TrimSpace(start); start != "" {
		if t, err := StartOfDay(start, p.opts.Location); err == nil {
			filters = append(filters, store.Gte("delivered_at", t.UTC()))
		}
	}
	if end = strings.TrimSpace(end); end != "" {
		if t, err := EndOfDay(end, p.opts.Location); err == nil {
			filters = append(filters, store.Lte("delivered_at", t.UTC()))
		}
	}

	var rows []models.Delivery
	err := p.store.Select(ctx, store.Query{
		Table:   "deliveries",
		Filters: filters,
		Order:   &store.Order{Column: "delivered_at", Desc: true},
	}, &rows)
	if err != nil {
		logStoreError(p.opts.Logger, "load deliveries", err)
		p.session.updatePanel(locationID, func(ps *PanelState) {
			ps.Deliveries = nil
			ps.Loaded = true
			ps.ListFailed = true
		})
		return
	}

	var all []models.Delivery
	allErr := p.store.Select(ctx, store.Query{
		Table:   "deliveries",
		Columns: []string{"kg_delivered"},
		Filters: []store.Filter{store.Eq("location_id", locationID)},
	}, &all)
	if allErr != nil {
		logStoreError(p.opts.Logger, "load all-time total", allErr)
	}

	p.session.updatePanel(locationID, func(ps *PanelState) {
		ps.Deliveries = rows
		ps.Loaded = true
		ps.ListFailed = false
		ps.TotalPeriod = models.SumKg(rows)
		ps.TotalAllFailed = allErr != nil
		if allErr == nil {
			ps.TotalAll = models.SumKg(all)
		}
	})
}

// Add validates the form values and inserts a delivery for the selected
// location. A blank, unparsable or zero price is replaced by the default
// price for kg. On success the form is reset and the list reloaded with the
// current filter.
func (p *DeliveryPanel) Add(ctx context.Context, kgRaw, priceRaw, dateRaw string) (*models.Delivery, error) {
	locationID := p.session.SelectedID()
	if locationID == 0 {
		return nil, ErrNoLocationSelected
	}
	p.session.updatePanel(locationID, func(ps *PanelState) {
		ps.Form.Kg, ps.Form.Price, ps.Form.Date = kgRaw, priceRaw, dateRaw
	})

	v := validation.Violations{}
	kg := validation.PositiveNumber("kg_delivered", kgRaw, v)
	validation.Date("delivered_at", dateRaw, v)
	price, err := parseAmount(priceRaw)
	if err != nil || price.IsZero() {
		price = p.opts.Pricing.PriceFor(kg)
	} else if price.IsNegative() {
		v["price"] = "must_not_be_negative"
	}
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	deliveredAt, err := StartOfDay(dateRaw, p.opts.Location)
	if err != nil {
		return nil, &ValidationError{Violations: validation.Violations{"delivered_at": "invalid_date"}}
	}

	if err := p.session.begin("add-delivery"); err != nil {
		return nil, err
	}
	defer p.session.end("add-delivery")

	d := &models.Delivery{
		LocationID:  locationID,
		KgDelivered: kg,
		Price:       price,
		DeliveredAt: deliveredAt.UTC(),
	}
	if err := p.store.Insert(ctx, "deliveries", d); err != nil {
		logStoreError(p.opts.Logger, "insert delivery", err)
		return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	var filter DateFilter
	p.session.updatePanel(locationID, func(ps *PanelState) {
		ps.Form.Reset(DateValue(p.opts.Now(), p.opts.Location))
		filter = ps.Filter
	})
	p.Load(ctx, locationID, filter.Start, filter.End)
	return d, nil
}

// Remove deletes a delivery after confirmation and reloads the list with
// the current filter. A delivery already gone counts as removed.
func (p *DeliveryPanel) Remove(ctx context.Context, id int64, c Confirmer) (bool, error) {
	if !c.Confirm(Prompt{Code: "confirm_delete_delivery"}) {
		return false, nil
	}
	if err := p.session.begin("delete-delivery"); err != nil {
		return false, err
	}
	defer p.session.end("delete-delivery")

	err := p.store.Delete(ctx, "deliveries", store.Eq("id", id))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logStoreError(p.opts.Logger, "delete delivery", err)
		return false, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	p.Reload(ctx)
	return true, nil
}

// ApplyFilter stores the date bounds and reloads. Either bound may be blank.
func (p *DeliveryPanel) ApplyFilter(ctx context.Context, start, end string) error {
	locationID := p.session.SelectedID()
	if locationID == 0 {
		return ErrNoLocationSelected
	}
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	v := validation.Violations{}
	if start != "" {
		validation.Date("start", start, v)
	}
	if end != "" {
		validation.Date("end", end, v)
	}
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}
	p.session.updatePanel(locationID, func(ps *PanelState) {
		ps.Filter = DateFilter{Start: start, End: end}
	})
	p.Load(ctx, locationID, start, end)
	return nil
}

// ResetFilter clears both bounds and reloads the full history. It does
// nothing without a selection.
func (p *DeliveryPanel) ResetFilter(ctx context.Context) error {
	locationID := p.session.SelectedID()
	if locationID == 0 {
		return nil
	}
	p.session.updatePanel(locationID, func(ps *PanelState) {
		ps.Filter = DateFilter{}
	})
	p.Load(ctx, locationID, "", "")
	return nil
}

// Reload re-runs Load for the selection with the stored filter.
func (p *DeliveryPanel) Reload(ctx context.Context) {
	locationID := p.session.SelectedID()
	var filter DateFilter
	if !p.session.updatePanel(locationID, func(ps *PanelState) { filter = ps.Filter }) {
		return
	}
	p.Load(ctx, locationID, filter.Start, filter.End)
}

// SetKg updates the quantity input, auto-filling the price.
func (p *DeliveryPanel) SetKg(raw string) {
	p.editForm(func(f *PriceForm) { f.SetKg(raw, p.opts.Pricing) })
}

// EditPrice records a manual price.
func (p *DeliveryPanel) EditPrice(raw string) {
	p.editForm(func(f *PriceForm) { f.EditPrice(raw) })
}

// SetDate updates the date input.
func (p *DeliveryPanel) SetDate(raw string) {
	p.editForm(func(f *PriceForm) { f.Date = raw })
}

func (p *DeliveryPanel) editForm(fn func(f *PriceForm)) {
	p.session.updatePanel(p.session.SelectedID(), func(ps *PanelState) { fn(&ps.Form) })
}
