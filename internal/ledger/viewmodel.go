package ledger

import (
	"strings"

	"github.com/diewo77/go-deliveries/internal/models"
)

// LocationRow is one entry of the location list.
type LocationRow struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DeleteLabel string `json:"-"`
	Selected    bool   `json:"selected"`
}

// LocationList is the rendered location list. Placeholder is set instead
// of rows when nothing can be shown.
type LocationList struct {
	Query       string        `json:"query"`
	Rows        []LocationRow `json:"rows"`
	Placeholder string        `json:"placeholder,omitempty"`
	Failed      bool          `json:"failed"`
}

// DeliveryRow is one entry of the audit log.
type DeliveryRow struct {
	ID    int64  `json:"id"`
	Kg    string `json:"kg"`
	Date  string `json:"date"`
	Price string `json:"price"`
}

// InfoPanel is the rendered info panel. Empty means no location is selected
// and only the prompt is shown.
type InfoPanel struct {
	Empty      bool          `json:"empty"`
	Heading    string        `json:"heading"`
	Body       string        `json:"body,omitempty"`
	LocationID int64         `json:"location_id,omitempty"`
	Subtitle   string        `json:"subtitle,omitempty"`
	Form       PriceForm     `json:"form"`
	PriceHint  string        `json:"price_hint,omitempty"`
	Filter     DateFilter    `json:"filter"`
	TotalKg    string        `json:"total_kg"`
	TotalKgAll string        `json:"total_kg_all"`
	Rows       []DeliveryRow `json:"rows"`
	Message    string        `json:"message,omitempty"`
}

// Page is the whole view.
type Page struct {
	Title     string       `json:"title"`
	Locations LocationList `json:"locations"`
	Panel     InfoPanel    `json:"panel"`
}

// BuildLocationList renders the cached locations filtered by the search
// text.
func BuildLocationList(s Snapshot, f Formatter) LocationList {
	list := LocationList{Query: s.Search, Failed: s.LocationsFailed}
	if s.LocationsFailed {
		list.Placeholder = f.T("locations_load_failed")
		return list
	}
	visible := FilterLocations(s.Locations, s.Search)
	if len(visible) == 0 {
		if s.LocationsLoaded {
			list.Placeholder = f.T("locations_not_found")
		}
		return list
	}
	list.Rows = make([]LocationRow, 0, len(visible))
	for _, l := range visible {
		title := strings.TrimSpace(l.Name)
		if title == "" {
			title = f.T("untitled")
		}
		list.Rows = append(list.Rows, LocationRow{
			ID:          l.ID,
			Title:       title,
			Description: l.Description(),
			DeleteLabel: f.Tf("delete_title", title),
			Selected:    s.Selected != nil && s.Selected.ID == l.ID,
		})
	}
	return list
}

// BuildInfoPanel renders the panel of the selected location, or the empty
// prompt when there is none.
func BuildInfoPanel(s Snapshot, f Formatter, pricing Pricing) InfoPanel {
	if s.Selected == nil {
		return InfoPanel{Empty: true, Heading: f.T("info_empty_title"), Body: f.T("info_empty_body")}
	}
	ps := s.Panel
	panel := InfoPanel{
		Heading:    s.Selected.Name,
		LocationID: s.Selected.ID,
		Subtitle:   s.Selected.Description(),
		Form:       ps.Form,
		PriceHint:  f.Tf("price_hint", f.Number(pricing.KgPerSack), f.Number(pricing.PricePerSack)),
		Filter:     ps.Filter,
		TotalKg:    f.Number(ps.TotalPeriod),
		TotalKgAll: f.Number(ps.TotalAll),
	}
	if ps.TotalAllFailed {
		panel.TotalKgAll = "—"
	}
	switch {
	case ps.ListFailed:
		panel.Message = f.T("deliveries_load_failed")
	case len(ps.Deliveries) == 0:
		panel.Message = f.T("deliveries_none")
	default:
		panel.Rows = BuildDeliveryRows(ps.Deliveries, f)
	}
	return panel
}

// BuildDeliveryRows formats deliveries for display.
func BuildDeliveryRows(ds []models.Delivery, f Formatter) []DeliveryRow {
	rows := make([]DeliveryRow, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, DeliveryRow{
			ID:    d.ID,
			Kg:    f.Number(d.KgDelivered),
			Date:  f.Date(d.DeliveredAt),
			Price: f.Number(d.Price),
		})
	}
	return rows
}

// BuildPage renders both panels.
func BuildPage(s Snapshot, f Formatter, pricing Pricing) Page {
	return Page{
		Title:     f.T("app_title"),
		Locations: BuildLocationList(s, f),
		Panel:     BuildInfoPanel(s, f, pricing),
	}
}
