package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/meetingmate/models"
)

func columns() []table.Column {
	return []table.Column{
		{Title: " ", Width: 3},
		{Title: "Meeting", Width: 32},
		{Title: "Starts", Width: 20},
		{Title: "Recipients", Width: 10},
	}
}

func (m *Model) refreshRows() {
	rows := make([]table.Row, 0, len(m.events))
	for i, e := range m.events {
		mark := "[ ]"
		if m.selected[i] {
			mark = "[x]"
		}
		start := "TBC"
		if !e.Start.IsZero() {
			start = e.Start.Local().Format("Mon Jan 2 15:04")
		}
		rows = append(rows, table.Row{
			mark,
			e.Summary,
			start,
			fmt.Sprintf("%d", len(e.Recipients())),
		})
	}
	m.table.SetRows(rows)
}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("MEETING REMINDERS"))
	s.WriteString("\n")

	if m.filter != "" {
		s.WriteString(messageStyle.Render(fmt.Sprintf("Filter: %q", m.filter)))
		s.WriteString("\n")
	}
	if m.opts.DryRun {
		s.WriteString(warnStyle.Render("DRY RUN: nothing will be sent"))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	switch {
	case m.loading:
		s.WriteString(messageStyle.Render("Loading events..."))
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case len(m.events) == 0:
		s.WriteString(messageStyle.Render("No upcoming events found."))
	default:
		s.WriteString(m.table.View())
	}
	s.WriteString("\n")

	if m.viewMode == ViewFilter {
		s.WriteString("\n")
		s.WriteString(m.filterInput.View())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("Enter: Apply • Esc: Cancel"))
		return s.String()
	}

	s.WriteString(m.renderListHelp())
	return s.String()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Space: Toggle",
		"a: All",
		"/: Filter",
		"Enter: Send",
		"r: Reload",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case " ", "x":
		if len(m.events) == 0 {
			return m, nil
		}
		i := m.table.Cursor()
		m.selected[i] = !m.selected[i]
		m.refreshRows()
		return m, nil
	case "a":
		if m.allSelected() {
			m.selected = map[int]bool{}
		} else {
			for i := range m.events {
				m.selected[i] = true
			}
		}
		m.refreshRows()
		return m, nil
	case "/":
		m.viewMode = ViewFilter
		m.filterInput.SetValue(m.filter)
		cmd := m.filterInput.Focus()
		return m, cmd
	case "r":
		m.loading = true
		return m, m.loadEvents()
	case "enter":
		evs := m.chosenEvents()
		if len(evs) == 0 {
			return m, nil
		}
		m.viewMode = ViewSending
		return m, m.sendReminders(evs)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) allSelected() bool {
	for i := range m.events {
		if !m.selected[i] {
			return false
		}
	}
	return len(m.events) > 0
}

// chosenEvents returns the selected events in list order, or the highlighted one when none are selected.
func (m Model) chosenEvents() []models.Event {
	var out []models.Event
	for i, e := range m.events {
		if m.selected[i] {
			out = append(out, e)
		}
	}
	if len(out) == 0 && len(m.events) > 0 {
		out = append(out, m.events[m.table.Cursor()])
	}
	return out
}

func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.filterInput.Blur()
		return m, nil
	case "enter":
		m.viewMode = ViewList
		m.filterInput.Blur()
		m.filter = m.filterInput.Value()
		m.loading = true
		return m, m.loadEvents()
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}
