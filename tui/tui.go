// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive picker for choosing which upcoming meetings get reminders
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/meetingmate/models"
	"github.com/harperreed/meetingmate/reminder"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewFilter
	ViewSending
	ViewResult
)

// Pipeline is the part of the orchestrator the picker drives.
type Pipeline interface {
	ListEvents(ctx context.Context, filter string) ([]models.Event, error)
	SendAllReminders(ctx context.Context, events []models.Event, opts reminder.Options) (*models.BatchReport, error)
}

type eventsLoadedMsg struct {
	events []models.Event
	err    error
}

type sendCompleteMsg struct {
	batch *models.BatchReport
	err   error
}

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	pipeline Pipeline
	opts     reminder.Options
	viewMode ViewMode

	filter      string
	filterInput textinput.Model

	events   []models.Event
	selected map[int]bool
	table    table.Model
	loading  bool

	batch *models.BatchReport
	err   error

	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, p Pipeline, filter string, opts reminder.Options) Model {
	input := textinput.New()
	input.Placeholder = "Title contains..."
	input.SetValue(filter)

	t := table.New(
		table.WithColumns(columns()),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	return Model{
		ctx:         ctx,
		pipeline:    p,
		opts:        opts,
		viewMode:    ViewList,
		filter:      filter,
		filterInput: input,
		selected:    map[int]bool{},
		table:       t,
		loading:     true,
		width:       80,
		height:      24,
	}
}

// Run starts the picker and blocks until the user quits.
func Run(ctx context.Context, p Pipeline, filter string, opts reminder.Options) error {
	program := tea.NewProgram(NewModel(ctx, p, filter, opts), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadEvents()
}

func (m Model) loadEvents() tea.Cmd {
	ctx, p, filter := m.ctx, m.pipeline, m.filter
	return func() tea.Msg {
		evs, err := p.ListEvents(ctx, filter)
		return eventsLoadedMsg{events: evs, err: err}
	}
}

func (m Model) sendReminders(evs []models.Event) tea.Cmd {
	ctx, p, opts := m.ctx, m.pipeline, m.opts
	return func() tea.Msg {
		batch, err := p.SendAllReminders(ctx, evs, opts)
		return sendCompleteMsg{batch: batch, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Height > 10 {
			m.table.SetHeight(msg.Height - 10)
		}
		return m, nil
	case eventsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.events = msg.events
		m.selected = map[int]bool{}
		m.refreshRows()
		return m, nil
	case sendCompleteMsg:
		m.batch = msg.batch
		m.err = msg.err
		m.viewMode = ViewResult
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList, ViewFilter:
		return m.renderListView()
	case ViewSending:
		return m.renderSendingView()
	case ViewResult:
		return m.renderResultView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewFilter:
		return m.handleFilterKeys(msg)
	case ViewResult:
		return m.handleResultKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)
)
