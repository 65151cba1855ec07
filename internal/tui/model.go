// Package tui is a terminal front end for the ledger: the location list on
// the left, the selected location's panel on the right.
package tui

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/diewo77/go-deliveries/internal/ledger"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeLocationForm
	modeDeliveryForm
	modeFilterForm
	modeConfirm
)

type pane int

const (
	paneLocations pane = iota
	paneLog
)

type (
	locationsLoadedMsg struct{}
	panelLoadedMsg     struct{}
	searchTickMsg      struct{ ticket uint64 }

	// resultMsg reports a write. validationCode replaces the field list
	// for validation errors when set.
	resultMsg struct {
		err            error
		failCode       string
		validationCode string
		closeForm      bool
	}
)

// Model is the bubbletea model. Store calls run inside commands; the
// session state lives in the controller.
type Model struct {
	ctx      context.Context
	ctrl     *ledger.Controller
	f        ledger.Formatter
	debounce *ledger.Debouncer

	mode   mode
	pane   pane
	search textinput.Model
	inputs []textinput.Model
	focus  int

	cursor    int
	logCursor int

	confirmText string
	onConfirm   tea.Cmd

	status    string
	statusErr bool

	width, height int
}

// New returns a model driving ctrl with messages in lang.
func New(ctx context.Context, ctrl *ledger.Controller, lang string) Model {
	search := newInput(ctrl.Formatter(lang).T("search_placeholder"))
	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		f:        ctrl.Formatter(lang),
		debounce: ledger.NewDebouncer(ledger.SearchDebounce),
		search:   search,
	}
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 255
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func (m Model) Init() tea.Cmd {
	return m.fetchLocations()
}

func (m Model) fetchLocations() tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Locations.FetchAll(m.ctx)
		return locationsLoadedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case locationsLoadedMsg:
		m.clamp()
		return m, nil
	case panelLoadedMsg:
		m.clamp()
		return m, nil
	case searchTickMsg:
		if m.debounce.Fire(msg.ticket) {
			m.ctrl.Locations.Search(m.search.Value())
			m.cursor = 0
			m.clamp()
		}
		return m, nil
	case resultMsg:
		return m.applyResult(msg), nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeLocationForm, modeDeliveryForm, modeFilterForm:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) applyResult(msg resultMsg) Model {
	if msg.err == nil {
		m.status, m.statusErr = "", false
		if msg.closeForm {
			m.mode, m.inputs = modeBrowse, nil
		}
		m.clamp()
		return m
	}
	m.statusErr = true
	var verr *ledger.ValidationError
	switch {
	case errors.As(msg.err, &verr):
		if msg.validationCode != "" {
			m.status = m.f.T(msg.validationCode)
			break
		}
		fields := make([]string, 0, len(verr.Violations))
		for field, code := range verr.Violations {
			fields = append(fields, m.f.T(field)+": "+m.f.T(code))
		}
		sort.Strings(fields)
		m.status = strings.Join(fields, "; ")
	case errors.Is(msg.err, ledger.ErrNoLocationSelected):
		m.status = m.f.T("select_location_first")
	case errors.Is(msg.err, ledger.ErrBusy):
		m.status = m.f.T("busy")
	case errors.Is(msg.err, ledger.ErrLocationNotFound):
		m.status = m.f.T("locations_not_found")
	default:
		m.status = m.f.T(msg.failCode)
	}
	m.clamp()
	return m
}

func (m *Model) clamp() {
	visible := m.ctrl.Locations.Visible()
	if m.cursor >= len(visible) {
		m.cursor = len(visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	n := len(m.ctrl.Session.Snapshot().Panel.Deliveries)
	if m.logCursor >= n {
		m.logCursor = n - 1
	}
	if m.logCursor < 0 {
		m.logCursor = 0
	}
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.ctrl.Session.Snapshot()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		if m.pane == paneLocations && snap.Selected != nil {
			m.pane = paneLog
		} else {
			m.pane = paneLocations
		}
	case "up", "k":
		if m.pane == paneLog {
			m.logCursor--
		} else {
			m.cursor--
		}
		m.clamp()
	case "down", "j":
		if m.pane == paneLog {
			m.logCursor++
		} else {
			m.cursor++
		}
		m.clamp()
	case "/":
		m.mode = modeSearch
		m.search.Focus()
	case "enter":
		visible := ledger.FilterLocations(snap.Locations, snap.Search)
		if m.cursor < len(visible) {
			m.logCursor = 0
			return m, m.selectLocation(visible[m.cursor].ID)
		}
	case "a":
		m.openForm(modeLocationForm, []string{m.f.T("name"), m.f.T("address"), m.f.T("city")}, nil)
	case "n":
		if snap.Selected == nil {
			m.status, m.statusErr = m.f.T("select_location_first"), true
			break
		}
		form := snap.Panel.Form
		m.openForm(modeDeliveryForm, []string{m.f.T("kg_delivered"), m.f.T("price"), "YYYY-MM-DD"}, []string{form.Kg, form.Price, form.Date})
	case "f":
		if snap.Selected == nil {
			m.status, m.statusErr = m.f.T("select_location_first"), true
			break
		}
		m.openForm(modeFilterForm, []string{m.f.T("filter_start"), m.f.T("filter_end")}, []string{snap.Panel.Filter.Start, snap.Panel.Filter.End})
	case "r":
		return m, m.run(func() error { return m.ctrl.Deliveries.ResetFilter(m.ctx) }, "deliveries_load_failed", "", false)
	case "d":
		visible := ledger.FilterLocations(snap.Locations, snap.Search)
		if m.cursor >= len(visible) {
			break
		}
		loc := visible[m.cursor]
		m.confirm(m.f.Tf("confirm_delete_location", loc.Name), m.run(func() error {
			_, err := m.ctrl.Locations.Remove(m.ctx, loc.ID, ledger.Confirmed)
			return err
		}, "location_delete_failed", "", false))
	case "x":
		if snap.Selected == nil || m.logCursor >= len(snap.Panel.Deliveries) {
			break
		}
		id := snap.Panel.Deliveries[m.logCursor].ID
		m.confirm(m.f.T("confirm_delete_delivery"), m.run(func() error {
			_, err := m.ctrl.Deliveries.Remove(m.ctx, id, ledger.Confirmed)
			return err
		}, "delivery_delete_failed", "", false))
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	ticket := m.debounce.Trigger()
	tick := tea.Tick(m.debounce.Wait(), func(time.Time) tea.Msg { return searchTickMsg{ticket: ticket} })
	return m, tea.Batch(cmd, tick)
}

func (m *Model) openForm(md mode, placeholders, values []string) {
	m.mode = md
	m.focus = 0
	m.status, m.statusErr = "", false
	m.inputs = make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		m.inputs[i] = newInput(p)
		if i < len(values) {
			m.inputs[i].SetValue(values[i])
		}
	}
	m.inputs[0].Focus()
}

func (m *Model) confirm(text string, action tea.Cmd) {
	m.mode = modeConfirm
	m.confirmText = text
	m.onConfirm = action
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		action := m.onConfirm
		m.mode, m.onConfirm, m.confirmText = modeBrowse, nil, ""
		return m, action
	case "n", "N", "esc":
		m.mode, m.onConfirm, m.confirmText = modeBrowse, nil, ""
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode, m.inputs = modeBrowse, nil
		return m, nil
	case "tab", "down":
		m.moveFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, nil
	case "enter":
		return m, m.submit()
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.mode == modeDeliveryForm && m.inputs[m.focus].Value() != before {
		m.syncPriceForm()
	}
	return m, cmd
}

// syncPriceForm pushes the edited delivery input into the session form and
// shows the auto-filled price.
func (m *Model) syncPriceForm() {
	value := m.inputs[m.focus].Value()
	switch m.focus {
	case 0:
		m.ctrl.Deliveries.SetKg(value)
		m.inputs[1].SetValue(m.ctrl.Session.Snapshot().Panel.Form.Price)
	case 1:
		m.ctrl.Deliveries.EditPrice(value)
	case 2:
		m.ctrl.Deliveries.SetDate(value)
	}
}

func (m *Model) moveFocus(delta int) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

func (m Model) submit() tea.Cmd {
	values := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		values[i] = in.Value()
	}
	switch m.mode {
	case modeLocationForm:
		return m.run(func() error {
			_, err := m.ctrl.Locations.Add(m.ctx, values[0], values[1], values[2])
			return err
		}, "location_save_failed", "name_city_required", true)
	case modeDeliveryForm:
		return m.run(func() error {
			_, err := m.ctrl.Deliveries.Add(m.ctx, values[0], values[1], values[2])
			return err
		}, "delivery_add_failed", "", true)
	case modeFilterForm:
		return m.run(func() error {
			return m.ctrl.Deliveries.ApplyFilter(m.ctx, values[0], values[1])
		}, "deliveries_load_failed", "", true)
	}
	return nil
}

// run executes fn as a command and reports it as a resultMsg.
func (m Model) run(fn func() error, failCode, validationCode string, closeForm bool) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{err: fn(), failCode: failCode, validationCode: validationCode, closeForm: closeForm}
	}
}

func (m Model) selectLocation(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.ctrl.Deliveries.Select(m.ctx, id); err != nil {
			return resultMsg{err: err, failCode: "deliveries_load_failed"}
		}
		return panelLoadedMsg{}
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, ctrl *ledger.Controller, lang string) error {
	_, err := tea.NewProgram(New(ctx, ctrl, lang), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
