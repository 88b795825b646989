package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/meetingmate/models"
)

func (m Model) renderSendingView() string {
	return titleStyle.Render("MEETING REMINDERS") + "\n\n" + messageStyle.Render("Sending reminders...")
}

func (m Model) renderResultView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("RESULTS"))
	s.WriteString("\n\n")

	if m.batch != nil {
		for _, report := range m.batch.Reports {
			s.WriteString(report.Summary)
			s.WriteString("\n")
			for _, r := range report.Results {
				s.WriteString("  ")
				s.WriteString(renderResult(r))
				s.WriteString("\n")
			}
		}
		s.WriteString("\n")
		s.WriteString(fmt.Sprintf("%d of %d event(s) completed", m.batch.Completed, m.batch.Total))
		s.WriteString("\n")
	}

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("Enter: Back to list • q: Quit"))
	return s.String()
}

func renderResult(r models.ReminderResult) string {
	switch r.Status {
	case models.StatusSent:
		return okStyle.Render("✓ " + r.Email)
	case models.StatusDryRun:
		return warnStyle.Render("~ " + r.Email + " (dry run)")
	case models.StatusSkipped:
		return messageStyle.Render("- " + r.Email + " (already reminded)")
	default:
		return errorStyle.Render("✗ " + r.Email + ": " + r.Error)
	}
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		m.viewMode = ViewList
		m.batch = nil
		m.err = nil
		m.loading = true
		return m, m.loadEvents()
	}
	return m, nil
}
