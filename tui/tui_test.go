// ABOUTME: Tests for the reminder picker
// ABOUTME: Drives the model with key messages against a stub pipeline
package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/meetingmate/models"
	"github.com/harperreed/meetingmate/reminder"
)

type stubPipeline struct {
	events  []models.Event
	listErr error
	filters []string
	sent    [][]models.Event
	opts    reminder.Options
}

func (s *stubPipeline) ListEvents(_ context.Context, filter string) ([]models.Event, error) {
	s.filters = append(s.filters, filter)
	return s.events, s.listErr
}

func (s *stubPipeline) SendAllReminders(_ context.Context, evs []models.Event, opts reminder.Options) (*models.BatchReport, error) {
	s.sent = append(s.sent, evs)
	s.opts = opts
	batch := &models.BatchReport{Total: len(evs)}
	for _, e := range evs {
		report := &models.ReminderReport{Summary: e.Summary}
		for _, a := range e.Recipients() {
			report.Add(models.ReminderResult{Email: a.Email, Status: models.StatusSent})
		}
		batch.Reports = append(batch.Reports, report)
		batch.Completed++
	}
	return batch, nil
}

func stubEvents() []models.Event {
	start := time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)
	return []models.Event{
		{ID: "evt1", Summary: "Team Sync", Start: start, Attendees: []models.Attendee{
			{Email: "owner@example.com", Organizer: true},
			{Email: "alice@example.com"},
		}},
		{ID: "evt2", Summary: "Budget Review", Start: start.Add(24 * time.Hour), Attendees: []models.Attendee{
			{Email: "bob@example.com"},
		}},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step applies msg and runs any resulting command once.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	model := next.(Model)
	if cmd != nil {
		if out := cmd(); out != nil {
			switch out.(type) {
			case eventsLoadedMsg, sendCompleteMsg:
				next, _ = model.Update(out)
				model = next.(Model)
			}
		}
	}
	return model
}

// press applies msg and drops the resulting command.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func loaded(t *testing.T, p *stubPipeline, opts reminder.Options) Model {
	t.Helper()
	m := NewModel(context.Background(), p, "", opts)
	msg := m.Init()()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestListViewShowsEvents(t *testing.T) {
	p := &stubPipeline{events: stubEvents()}
	m := loaded(t, p, reminder.Options{})

	out := m.View()
	assert.Contains(t, out, "MEETING REMINDERS")
	assert.Contains(t, out, "Team Sync")
	assert.Contains(t, out, "Budget Review")
	assert.False(t, m.loading)
}

func TestEnterSendsHighlightedEventWhenNoneSelected(t *testing.T) {
	p := &stubPipeline{events: stubEvents()}
	m := loaded(t, p, reminder.Options{DryRun: true})

	m = step(t, m, key("enter"))

	require.Len(t, p.sent, 1)
	require.Len(t, p.sent[0], 1)
	assert.Equal(t, "evt1", p.sent[0][0].ID)
	assert.True(t, p.opts.DryRun)
	assert.Equal(t, ViewResult, m.viewMode)
	assert.Contains(t, m.View(), "alice@example.com")
	assert.Contains(t, m.View(), "1 of 1 event(s) completed")
}

func TestSelectAllAndSend(t *testing.T) {
	p := &stubPipeline{events: stubEvents()}
	m := loaded(t, p, reminder.Options{})

	m = press(t, m, key("a"))
	assert.True(t, m.allSelected())

	m = step(t, m, key("enter"))
	require.Len(t, p.sent, 1)
	assert.Len(t, p.sent[0], 2)
	assert.Contains(t, m.View(), "2 of 2 event(s) completed")
}

func TestToggleSelection(t *testing.T) {
	p := &stubPipeline{events: stubEvents()}
	m := loaded(t, p, reminder.Options{})

	m = press(t, m, key("down"))
	m = press(t, m, key(" "))
	assert.True(t, m.selected[1])
	assert.False(t, m.selected[0])

	evs := m.chosenEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "evt2", evs[0].ID)
}

func TestFilterReloadsEvents(t *testing.T) {
	p := &stubPipeline{events: stubEvents()}
	m := loaded(t, p, reminder.Options{})

	m = press(t, m, key("/"))
	assert.Equal(t, ViewFilter, m.viewMode)
	for _, r := range "Team" {
		m = press(t, m, key(string(r)))
	}
	m = step(t, m, key("enter"))

	assert.Equal(t, ViewList, m.viewMode)
	assert.Equal(t, "Team", m.filter)
	assert.Equal(t, []string{"", "Team"}, p.filters)
}

func TestListErrorIsShown(t *testing.T) {
	p := &stubPipeline{listErr: errors.New("not authenticated")}
	m := loaded(t, p, reminder.Options{})

	assert.Contains(t, m.View(), "not authenticated")

	m = step(t, m, key("enter"))
	assert.Empty(t, p.sent)
	assert.Equal(t, ViewList, m.viewMode)
}
