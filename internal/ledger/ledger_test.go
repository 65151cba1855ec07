package ledger

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-deliveries/internal/models"
	"github.com/diewo77/go-deliveries/internal/store"
)

var testZone = time.FixedZone("CET", 3600)

// faultyStore wraps a real store and fails selected calls.
type faultyStore struct {
	store.TableStore
	failSelect func(q store.Query) error
	failInsert error
	failDelete error
	writes     atomic.Int32
}

func (f *faultyStore) Select(ctx context.Context, q store.Query, dest any) error {
	if f.failSelect != nil {
		if err := f.failSelect(q); err != nil {
			return err
		}
	}
	return f.TableStore.Select(ctx, q, dest)
}

func (f *faultyStore) Insert(ctx context.Context, table string, row any) error {
	f.writes.Add(1)
	if f.failInsert != nil {
		return f.failInsert
	}
	return f.TableStore.Insert(ctx, table, row)
}

func (f *faultyStore) Delete(ctx context.Context, table string, filters ...store.Filter) error {
	f.writes.Add(1)
	if f.failDelete != nil {
		return f.failDelete
	}
	return f.TableStore.Delete(ctx, table, filters...)
}

func setupController(t *testing.T) (*Controller, *faultyStore, *bytes.Buffer) {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Location{}, &models.Delivery{}))

	fs := &faultyStore{TableStore: store.NewGormStore(db, models.Location{}, models.Delivery{})}
	var logs bytes.Buffer
	c := NewController(fs, Options{
		Location: testZone,
		Now:      func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, testZone) },
		Logger:   log.New(&logs, "", 0),
	})
	return c, fs, &logs
}

func addLocation(t *testing.T, c *Controller, name, address, city string) *models.Location {
	t.Helper()
	loc, err := c.Locations.Add(context.Background(), name, address, city)
	require.NoError(t, err)
	return loc
}

func TestLocations_FetchAllOrderedByID(t *testing.T) {
	c, _, _ := setupController(t)
	addLocation(t, c, "Beta", "", "Y")
	addLocation(t, c, "Alpha", "", "X")

	got := c.Locations.FetchAll(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, "Beta", got[0].Name)
	assert.Equal(t, "Alpha", got[1].Name)
}

func TestLocations_FetchAllFailureEmptiesCache(t *testing.T) {
	c, fs, logs := setupController(t)
	addLocation(t, c, "Alpha", "", "X")

	fs.failSelect = func(store.Query) error { return errors.New("connection refused") }
	assert.Empty(t, c.Locations.FetchAll(context.Background()))

	snap := c.Session.Snapshot()
	assert.True(t, snap.LocationsFailed)
	assert.Empty(t, snap.Locations)
	list := BuildLocationList(snap, c.Formatter("en"))
	assert.Equal(t, "Could not load locations.", list.Placeholder)
	assert.Contains(t, logs.String(), "connection refused")
}

func TestLocations_AddRequiresNameAndCity(t *testing.T) {
	c, fs, _ := setupController(t)

	_, err := c.Locations.Add(context.Background(), "  ", "Bulevar 1", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Violations["name"])
	assert.Equal(t, "required", verr.Violations["city"])
	assert.Zero(t, fs.writes.Load())
}

func TestLocations_AddWriteFailure(t *testing.T) {
	c, fs, logs := setupController(t)
	fs.failInsert = &store.StatusError{Status: 401, Err: errors.New("invalid api key")}

	_, err := c.Locations.Add(context.Background(), "Alpha", "", "X")
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.True(t, store.IsAuthError(err))
	assert.Contains(t, logs.String(), "rejected the credentials")
}

func TestLocations_SearchFilter(t *testing.T) {
	c, _, _ := setupController(t)
	addLocation(t, c, "Alpha", "", "X")
	addLocation(t, c, "Beta", "", "Y")

	c.Locations.Search("al")
	visible := c.Locations.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Alpha", visible[0].Name)

	c.Locations.Search("y")
	visible = c.Locations.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Beta", visible[0].Name)

	c.Locations.Search("zzz")
	list := BuildLocationList(c.Session.Snapshot(), c.Formatter("en"))
	assert.Empty(t, list.Rows)
	assert.Equal(t, "No location found", list.Placeholder)
	assert.False(t, list.Failed)

	c.Locations.Search("")
	assert.Len(t, c.Locations.Visible(), 2)
}

func TestLocations_RemoveDeclined(t *testing.T) {
	c, fs, _ := setupController(t)
	loc := addLocation(t, c, "Alpha", "", "X")
	before := fs.writes.Load()

	var asked Prompt
	ok, err := c.Locations.Remove(context.Background(), loc.ID, ConfirmFunc(func(p Prompt) bool {
		asked = p
		return false
	}))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "confirm_delete_location", asked.Code)
	assert.Equal(t, []any{"Alpha"}, asked.Args)
	assert.Equal(t, before, fs.writes.Load())
	assert.Len(t, c.Locations.Visible(), 1)
}

func TestLocations_RemoveSelectedClearsPanel(t *testing.T) {
	c, _, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	addLocation(t, c, "Beta", "", "Y")
	require.NoError(t, c.Deliveries.Select(ctx, loc.ID))
	require.False(t, BuildInfoPanel(c.Session.Snapshot(), c.Formatter("en"), c.Pricing()).Empty)

	ok, err := c.Locations.Remove(ctx, loc.ID, Confirmed)
	require.NoError(t, err)
	assert.True(t, ok)

	snap := c.Session.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.True(t, BuildInfoPanel(snap, c.Formatter("en"), c.Pricing()).Empty)
	rows := BuildLocationList(snap, c.Formatter("en")).Rows
	require.Len(t, rows, 1)
	assert.Equal(t, "Beta", rows[0].Title)
}

func TestLocations_RemoveMissingCountsAsSuccess(t *testing.T) {
	c, _, _ := setupController(t)
	ok, err := c.Locations.Remove(context.Background(), 999, Confirmed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocations_RemoveFailureKeepsState(t *testing.T) {
	c, fs, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	require.NoError(t, c.Deliveries.Select(ctx, loc.ID))

	fs.failDelete = errors.New("timeout")
	ok, err := c.Locations.Remove(ctx, loc.ID, Confirmed)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.Equal(t, loc.ID, c.Session.SelectedID())
	assert.Len(t, c.Locations.Visible(), 1)
}

func TestDeliveries_SelectUnknownLocation(t *testing.T) {
	c, _, _ := setupController(t)
	assert.ErrorIs(t, c.Deliveries.Select(context.Background(), 42), ErrLocationNotFound)
}

func TestDeliveries_AddRequiresSelection(t *testing.T) {
	c, fs, _ := setupController(t)
	_, err := c.Deliveries.Add(context.Background(), "10", "", "2024-05-01")
	assert.ErrorIs(t, err, ErrNoLocationSelected)
	assert.Zero(t, fs.writes.Load())
}

func TestDeliveries_AddValidation(t *testing.T) {
	c, fs, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	require.NoError(t, c.Deliveries.Select(ctx, loc.ID))
	before := fs.writes.Load()

	tests := []struct {
		name      string
		kg, price string
		date      string
		field     string
	}{
		{"zero kg", "0", "", "2024-05-01", "kg_delivered"},
		{"negative kg", "-3", "", "2024-05-01", "kg_delivered"},
		{"text kg", "abc", "", "2024-05-01", "kg_delivered"},
		{"missing date", "10", "", "", "delivered_at"},
		{"bad date", "10", "", "01/05/2024", "delivered_at"},
		{"negative price", "10", "-1", "2024-05-01", "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Deliveries.Add(ctx, tt.kg, tt.price, tt.date)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Violations, tt.field)
		})
	}
	assert.Equal(t, before, fs.writes.Load())
}

func TestDeliveries_AddDefaultsPriceAndNormalizesDate(t *testing.T) {
	c, _, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	require.NoError(t, c.Deliveries.Select(ctx, loc.ID))

	for _, price := range []string{"", "abc", "0"} {
		d, err := c.Deliveries.Add(ctx, "10", price, "2024-05-01")
		require.NoError(t, err)
		assert.True(t, d.Price.Equal(decimal.NewFromInt(500)), "price %q gave %s", price, d.Price)
		assert.True(t, d.DeliveredAt.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, testZone)))
	}

	d, err := c.Deliveries.Add(ctx, "1,000", "123.45", "2024-05-02")
	require.NoError(t, err)
	assert.True(t, d.KgDelivered.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "123.45", d.Price.StringFixed(2))

	snap := c.Session.Snapshot()
	assert.Equal(t, PriceForm{Date: "2024-05-10"}, snap.Panel.Form)
	assert.Len(t, snap.Panel.Deliveries, 4)
	assert.True(t, snap.Panel.TotalPeriod.Equal(decimal.NewFromInt(1030)))
}

func TestDeliveries_AddWriteFailureKeepsForm(t *testing.T) {
	c, fs, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	require.NoError(t, c.Deliveries.Select(ctx, loc.ID))
	c.Deliveries.EditPrice("99")

	fs.failInsert = errors.New("permission denied for table deliveries")
	_, err := c.Deliveries.Add(ctx, "10", "99", "2024-05-01")
	assert.ErrorIs(t, err, ErrWriteFailed)

	form := c.Session.Snapshot().Panel.Form
	assert.Equal(t, "10", form.Kg)
	assert.Equal(t, "99", form.Price)
	assert.True(t, form.PriceEdited)
}

func seedDeliveries(t *testing.T, c *Controller, locID int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Deliveries.Select(ctx, locID))
	for day, kg := range map[string]string{
		"2024-03-01": "5",
		"2024-03-02": "7",
		"2024-03-03": "11",
		"2024-03-04": "13",
	} {
		_, err := c.Deliveries.Add(ctx, kg, "", day)
		require.NoError(t, err)
	}
}

func TestDeliveries_FilterIsInclusive(t *testing.T) {
	c, _, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	seedDeliveries(t, c, loc.ID)

	require.NoError(t, c.Deliveries.ApplyFilter(ctx, "2024-03-02", "2024-03-03"))
	snap := c.Session.Snapshot()
	require.Len(t, snap.Panel.Deliveries, 2)
	assert.True(t, snap.Panel.Deliveries[0].DeliveredAt.After(snap.Panel.Deliveries[1].DeliveredAt))
	assert.True(t, snap.Panel.TotalPeriod.Equal(models.SumKg(snap.Panel.Deliveries)))
	assert.True(t, snap.Panel.TotalPeriod.Equal(decimal.NewFromInt(18)))
	assert.True(t, snap.Panel.TotalAll.Equal(decimal.NewFromInt(36)))
	assert.Equal(t, DateFilter{Start: "2024-03-02", End: "2024-03-03"}, snap.Panel.Filter)

	require.NoError(t, c.Deliveries.ApplyFilter(ctx, "2024-03-03", ""))
	assert.Len(t, c.Session.Snapshot().Panel.Deliveries, 2)

	require.NoError(t, c.Deliveries.ApplyFilter(ctx, "", "2024-03-01"))
	assert.Len(t, c.Session.Snapshot().Panel.Deliveries, 1)

	require.NoError(t, c.Deliveries.ResetFilter(ctx))
	snap = c.Session.Snapshot()
	assert.Len(t, snap.Panel.Deliveries, 4)
	assert.Equal(t, DateFilter{}, snap.Panel.Filter)
}

func TestDeliveries_FilterNeedsSelection(t *testing.T) {
	c, _, _ := setupController(t)
	assert.ErrorIs(t, c.Deliveries.ApplyFilter(context.Background(), "", ""), ErrNoLocationSelected)
}

func TestDeliveries_ResetWithoutSelectionIsNoop(t *testing.T) {
	c, fs, _ := setupController(t)
	selects := 0
	fs.failSelect = func(q store.Query) error {
		selects++
		return nil
	}

	require.NoError(t, c.Deliveries.ResetFilter(context.Background()))
	assert.Zero(t, selects)
	snap := c.Session.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.False(t, snap.Panel.Loaded)
}

func TestLocations_NoMatchPlaceholderAfterAddOnly(t *testing.T) {
	c, _, _ := setupController(t)
	addLocation(t, c, "Alpha", "", "X")
	assert.True(t, c.Session.Snapshot().LocationsLoaded)

	c.Locations.Search("nothing like it")
	list := BuildLocationList(c.Session.Snapshot(), c.Formatter("en"))
	assert.Empty(t, list.Rows)
	assert.Equal(t, "No location found", list.Placeholder)
}

func TestDeliveries_SelectLoadsFullHistoryAndClearsFilter(t *testing.T) {
	c, _, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	other := addLocation(t, c, "Beta", "", "Y")
	seedDeliveries(t, c, loc.ID)
	require.NoError(t, c.Deliveries.ApplyFilter(ctx, "2024-03-04", ""))

	require.NoError(t, c.Deliveries.Select(ctx, other.ID))
	require.NoError(t, c.Deliveries.Select(ctx, loc.ID))
	snap := c.Session.Snapshot()
	assert.Equal(t, DateFilter{}, snap.Panel.Filter)
	assert.Len(t, snap.Panel.Deliveries, 4)
}

func TestDeliveries_RemoveHonorsFilter(t *testing.T) {
	c, _, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	seedDeliveries(t, c, loc.ID)
	require.NoError(t, c.Deliveries.ApplyFilter(ctx, "2024-03-03", ""))
	target := c.Session.Snapshot().Panel.Deliveries[0]

	ok, err := c.Deliveries.Remove(ctx, target.ID, Confirmed)
	require.NoError(t, err)
	assert.True(t, ok)

	snap := c.Session.Snapshot()
	assert.Len(t, snap.Panel.Deliveries, 1)
	assert.Equal(t, "2024-03-03", snap.Panel.Filter.Start)
	assert.True(t, snap.Panel.TotalAll.Equal(decimal.NewFromInt(36).Sub(target.KgDelivered)))

	ok, err = c.Deliveries.Remove(ctx, target.ID, Confirmed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeliveries_AllTimeFailureShowsDash(t *testing.T) {
	c, fs, logs := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	seedDeliveries(t, c, loc.ID)

	fs.failSelect = func(q store.Query) error {
		if q.Table == "deliveries" && len(q.Columns) == 1 {
			return errors.New("jwt expired")
		}
		return nil
	}
	c.Deliveries.Reload(ctx)

	panel := BuildInfoPanel(c.Session.Snapshot(), c.Formatter("en"), c.Pricing())
	assert.Equal(t, "—", panel.TotalKgAll)
	assert.Equal(t, "36", panel.TotalKg)
	assert.Len(t, panel.Rows, 4)
	assert.Contains(t, logs.String(), "rejected the credentials")
}

func TestDeliveries_ListFailureShowsPlaceholder(t *testing.T) {
	c, fs, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	seedDeliveries(t, c, loc.ID)

	fs.failSelect = func(q store.Query) error {
		if q.Table == "deliveries" {
			return errors.New("network down")
		}
		return nil
	}
	c.Deliveries.Reload(ctx)

	panel := BuildInfoPanel(c.Session.Snapshot(), c.Formatter("en"), c.Pricing())
	assert.Equal(t, "Could not load deliveries.", panel.Message)
	assert.Empty(t, panel.Rows)
}

func TestDeliveries_EmptyHistoryMessage(t *testing.T) {
	c, _, _ := setupController(t)
	loc := addLocation(t, c, "Alpha", "", "X")
	require.NoError(t, c.Deliveries.Select(context.Background(), loc.ID))

	panel := BuildInfoPanel(c.Session.Snapshot(), c.Formatter("en"), c.Pricing())
	assert.Equal(t, "No deliveries recorded for this period.", panel.Message)
	assert.Equal(t, "0", panel.TotalKg)
	assert.Equal(t, "0", panel.TotalKgAll)
}

func TestDeliveries_StaleLoadIsDropped(t *testing.T) {
	c, _, _ := setupController(t)
	ctx := context.Background()
	loc := addLocation(t, c, "Alpha", "", "X")
	other := addLocation(t, c, "Beta", "", "Y")
	seedDeliveries(t, c, loc.ID)
	require.NoError(t, c.Deliveries.Select(ctx, other.ID))

	c.Deliveries.Load(ctx, loc.ID, "", "")
	snap := c.Session.Snapshot()
	assert.Equal(t, other.ID, snap.Selected.ID)
	assert.Empty(t, snap.Panel.Deliveries)
}

func TestSession_BusyGuard(t *testing.T) {
	s := newSession()
	require.NoError(t, s.begin("add-delivery"))
	assert.ErrorIs(t, s.begin("add-delivery"), ErrBusy)
	assert.NoError(t, s.begin("delete-delivery"))
	s.end("add-delivery")
	assert.NoError(t, s.begin("add-delivery"))
}

func TestPriceFormInSession(t *testing.T) {
	c, _, _ := setupController(t)
	loc := addLocation(t, c, "Alpha", "", "X")
	require.NoError(t, c.Deliveries.Select(context.Background(), loc.ID))

	c.Deliveries.SetKg("10")
	assert.Equal(t, "500.00", c.Session.Snapshot().Panel.Form.Price)
	c.Deliveries.EditPrice("450")
	c.Deliveries.SetKg("20")
	form := c.Session.Snapshot().Panel.Form
	assert.Equal(t, "450", form.Price)
	assert.Equal(t, "20", form.Kg)
	c.Deliveries.SetDate("2024-01-01")
	assert.Equal(t, "2024-01-01", c.Session.Snapshot().Panel.Form.Date)
}

func TestLocations_AddAppendsWithoutRefetch(t *testing.T) {
	c, fs, _ := setupController(t)
	ctx := context.Background()
	addLocation(t, c, "Alpha", "", "X")
	c.Locations.FetchAll(ctx)

	selects := 0
	fs.failSelect = func(q store.Query) error {
		selects++
		return nil
	}
	loc := addLocation(t, c, "Beta", "Bulevar 1", "Y")
	assert.Zero(t, selects)

	visible := c.Locations.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, loc.ID, visible[1].ID)
	assert.Equal(t, "Bulevar 1 — Y", visible[1].Description())
}
