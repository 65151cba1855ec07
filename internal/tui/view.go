package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diewo77/go-deliveries/internal/ledger"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("62"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	activeBox   = boxStyle.BorderForeground(lipgloss.Color("62"))
)

const listWidth = 36

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 110
	}
	page := ledger.BuildPage(m.ctrl.Session.Snapshot(), m.f, m.ctrl.Pricing())

	left, right := boxStyle, boxStyle
	if m.pane == paneLocations {
		left = activeBox
	} else {
		right = activeBox
	}
	rightWidth := max(width-listWidth-6, 30)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		left.Width(listWidth).Render(m.viewLocations(page)),
		right.Width(rightWidth).Render(m.viewRight(page)),
	)

	var b strings.Builder
	b.WriteString(titleStyle.Render(page.Title))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(m.status)
		}
		b.WriteString("\n")
	}
	b.WriteString(faintStyle.Render(m.help()))
	return b.String()
}

func (m Model) help() string {
	switch m.mode {
	case modeConfirm:
		return m.f.T("tui_confirm_hint")
	case modeLocationForm, modeDeliveryForm, modeFilterForm:
		return m.f.T("tui_form_hint")
	}
	return m.f.T("tui_help")
}

func (m Model) viewLocations(page ledger.Page) string {
	var b strings.Builder
	b.WriteString(m.search.View())
	b.WriteString("\n\n")
	list := page.Locations
	if list.Placeholder != "" {
		b.WriteString(faintStyle.Render(list.Placeholder))
		return b.String()
	}
	for i, row := range list.Rows {
		marker := "  "
		if row.Selected {
			marker = "● "
		}
		line := marker + row.Title
		if i == m.cursor && m.pane == paneLocations {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		if row.Description != "" {
			b.WriteString("  " + faintStyle.Render(row.Description) + "\n")
		}
	}
	return b.String()
}

func (m Model) viewRight(page ledger.Page) string {
	switch m.mode {
	case modeConfirm:
		return titleStyle.Render(m.f.T("delete")) + "\n\n" + m.confirmText
	case modeLocationForm:
		return m.viewForm(m.f.T("add_location"), "")
	case modeDeliveryForm:
		return m.viewForm(m.f.T("add_delivery"), page.Panel.PriceHint)
	case modeFilterForm:
		return m.viewForm(m.f.T("filter"), "")
	}
	return m.viewPanel(page.Panel)
}

func (m Model) viewForm(title, hint string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	for _, in := range m.inputs {
		b.WriteString(faintStyle.Render(in.Placeholder))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}
	if hint != "" {
		b.WriteString(faintStyle.Render(hint))
	}
	return b.String()
}

func (m Model) viewPanel(p ledger.InfoPanel) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Heading))
	b.WriteString("\n")
	if p.Empty {
		b.WriteString(p.Body)
		return b.String()
	}
	if p.Subtitle != "" {
		b.WriteString(faintStyle.Render(p.Subtitle))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if p.Filter.Start != "" || p.Filter.End != "" {
		fmt.Fprintf(&b, "%s: %s  %s: %s\n", m.f.T("filter_start"), p.Filter.Start, m.f.T("filter_end"), p.Filter.End)
	}
	fmt.Fprintf(&b, "%s %s\n", m.f.T("total_period"), p.TotalKg)
	fmt.Fprintf(&b, "%s %s\n\n", m.f.T("total_all"), p.TotalKgAll)

	b.WriteString(titleStyle.Render(m.f.T("audit_logs")))
	b.WriteString("\n")
	if p.Message != "" {
		b.WriteString(faintStyle.Render(p.Message))
		return b.String()
	}
	for i, row := range p.Rows {
		line := fmt.Sprintf("%-12s %10s kg %12s", row.Date, row.Kg, row.Price)
		if i == m.logCursor && m.pane == paneLog {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
