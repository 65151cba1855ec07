package tui

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-deliveries/internal/ledger"
	"github.com/diewo77/go-deliveries/internal/models"
	"github.com/diewo77/go-deliveries/internal/store"
)

func setupModel(t *testing.T) (Model, *ledger.Controller) {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Location{}, &models.Delivery{}))

	ctrl := ledger.NewController(store.NewGormStore(db, models.Location{}, models.Delivery{}), ledger.Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) },
		Logger:   log.New(io.Discard, "", 0),
	})
	return New(context.Background(), ctrl, "en"), ctrl
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds the resulting messages back into m until no
// command is left.
func run(m Model, cmd tea.Cmd) Model {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if msg == nil {
			continue
		}
		next, follow := m.Update(msg)
		m = next.(Model)
		queue = append(queue, follow)
	}
	return m
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = run(next.(Model), cmd)
	}
	return m
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		m = press(m, string(r))
	}
	return m
}

func seed(t *testing.T, ctrl *ledger.Controller, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := ctrl.Locations.Add(context.Background(), n, "", "X")
		require.NoError(t, err)
	}
}

func TestSearchIsDebounced(t *testing.T) {
	m, ctrl := setupModel(t)
	seed(t, ctrl, "Alpha", "Beta")
	m = run(m, m.Init())

	m = press(m, "/")
	next, first := m.Update(key("a"))
	m = next.(Model)
	next, second := m.Update(key("l"))
	m = next.(Model)

	m = run(m, first)
	assert.Empty(t, ctrl.Session.Snapshot().Search, "superseded tick must not fire")

	m = run(m, second)
	assert.Equal(t, "al", ctrl.Session.Snapshot().Search)
	view := m.View()
	assert.Contains(t, view, "Alpha")
	assert.NotContains(t, view, "Beta")

	m = press(m, "esc")
	assert.Equal(t, modeBrowse, m.mode)
}

func TestAddLocationSelectAndDeliver(t *testing.T) {
	m, ctrl := setupModel(t)
	m = run(m, m.Init())

	m = press(m, "a")
	require.Equal(t, modeLocationForm, m.mode)
	m = typeText(m, "Alpha")
	m = press(m, "tab", "tab")
	m = typeText(m, "Novi Sad")
	m = press(m, "enter")
	assert.Equal(t, modeBrowse, m.mode)
	require.Len(t, ctrl.Session.Snapshot().Locations, 1)

	m = press(m, "enter")
	require.NotNil(t, ctrl.Session.Snapshot().Selected)
	assert.Contains(t, m.View(), "No deliveries")

	m = press(m, "n")
	require.Equal(t, modeDeliveryForm, m.mode)
	assert.Equal(t, "2024-05-10", m.inputs[2].Value())
	m = typeText(m, "10")
	assert.Equal(t, "500.00", m.inputs[1].Value())
	m = press(m, "enter")
	assert.Equal(t, modeBrowse, m.mode)

	snap := ctrl.Session.Snapshot()
	require.Len(t, snap.Panel.Deliveries, 1)
	assert.True(t, snap.Panel.Deliveries[0].Price.Equal(decimal.NewFromInt(500)))
	assert.Contains(t, m.View(), "500")
}

func TestLocationFormValidation(t *testing.T) {
	m, ctrl := setupModel(t)
	m = run(m, m.Init())

	m = press(m, "a", "enter")
	assert.Equal(t, modeLocationForm, m.mode)
	assert.Contains(t, m.View(), "Name and city are required.")
	assert.Empty(t, ctrl.Session.Snapshot().Locations)

	m = press(m, "esc")
	assert.Equal(t, modeBrowse, m.mode)
}

func TestDeleteLocationAsksFirst(t *testing.T) {
	m, ctrl := setupModel(t)
	seed(t, ctrl, "Alpha")
	m = run(m, m.Init())

	m = press(m, "d")
	require.Equal(t, modeConfirm, m.mode)
	assert.Contains(t, m.View(), `"Alpha"`)

	m = press(m, "n")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Len(t, ctrl.Session.Snapshot().Locations, 1)

	m = press(m, "d", "y")
	assert.Empty(t, ctrl.Session.Snapshot().Locations)
	assert.Contains(t, m.View(), "No location found")
}

func TestDeliveryNeedsSelection(t *testing.T) {
	m, _ := setupModel(t)
	m = run(m, m.Init())
	m = press(m, "n")
	assert.Equal(t, modeBrowse, m.mode)
	assert.True(t, strings.Contains(m.View(), "Select a location first"))
}
