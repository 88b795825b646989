// ABOUTME: MCP tool handlers for the reminder pipeline
// ABOUTME: Implements authorization_url, authenticate, list_events, send_reminder, and send_all_reminders
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/meetingmate/models"
	"github.com/harperreed/meetingmate/pipeline"
	"github.com/harperreed/meetingmate/reminder"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Pipeline is what the tools drive.
type Pipeline interface {
	AuthorizationURL() string
	Authenticate(ctx context.Context, code string) error
	Status(ctx context.Context) (*pipeline.AuthStatus, error)
	ListEvents(ctx context.Context, filter string) ([]models.Event, error)
	SendReminder(ctx context.Context, event models.Event, opts reminder.Options) (*models.ReminderReport, error)
	SendAllReminders(ctx context.Context, events []models.Event, opts reminder.Options) (*models.BatchReport, error)
}

type CalendarHandlers struct {
	pipeline Pipeline
}

func NewCalendarHandlers(p Pipeline) *CalendarHandlers {
	return &CalendarHandlers{pipeline: p}
}

// EventPayload is the tool-facing event shape; start is an RFC 3339 string.
type EventPayload struct {
	ID        string            `json:"id,omitempty" jsonschema:"Provider event id"`
	Summary   string            `json:"summary" jsonschema:"Meeting title"`
	Start     string            `json:"start" jsonschema:"Meeting start time in RFC 3339 format"`
	Attendees []models.Attendee `json:"attendees" jsonschema:"Meeting attendees"`
}

func eventToPayload(e models.Event) EventPayload {
	start := ""
	if !e.Start.IsZero() {
		start = e.Start.Format(time.RFC3339)
	}
	return EventPayload{ID: e.ID, Summary: e.Summary, Start: start, Attendees: e.Attendees}
}

func payloadToEvent(p EventPayload) (models.Event, error) {
	e := models.Event{ID: p.ID, Summary: p.Summary, Attendees: p.Attendees}
	if p.Start != "" {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return models.Event{}, fmt.Errorf("invalid start %q: %w", p.Start, err)
		}
		e.Start = start
	}
	return e, nil
}

// toolError hides provider detail behind the boundary message.
func toolError(err error) error {
	_, msg := pipeline.StatusFor(err)
	var validationErr *pipeline.ValidationError
	if errors.As(err, &validationErr) {
		return fmt.Errorf("%s: %v", msg, validationErr.Err)
	}
	return errors.New(msg)
}

type AuthorizationURLInput struct{}

type AuthorizationURLOutput struct {
	URL string `json:"url"`
}

func (h *CalendarHandlers) AuthorizationURL(_ context.Context, _ *mcp.CallToolRequest, _ AuthorizationURLInput) (*mcp.CallToolResult, AuthorizationURLOutput, error) {
	return nil, AuthorizationURLOutput{URL: h.pipeline.AuthorizationURL()}, nil
}

type AuthenticateInput struct {
	Code string `json:"code" jsonschema:"One-time authorization code returned to the redirect URI (required)"`
}

type MessageOutput struct {
	Message string `json:"message"`
}

func (h *CalendarHandlers) Authenticate(ctx context.Context, _ *mcp.CallToolRequest, input AuthenticateInput) (*mcp.CallToolResult, MessageOutput, error) {
	if input.Code == "" {
		return nil, MessageOutput{}, fmt.Errorf("code is required")
	}
	if err := h.pipeline.Authenticate(ctx, input.Code); err != nil {
		return nil, MessageOutput{}, toolError(err)
	}
	return nil, MessageOutput{Message: pipeline.MsgAuthenticated}, nil
}

type AuthStatusInput struct{}

type AuthStatusOutput struct {
	Authenticated   bool   `json:"authenticated"`
	Expiry          string `json:"expiry,omitempty"`
	HasRefreshToken bool   `json:"has_refresh_token"`
}

func (h *CalendarHandlers) AuthStatus(ctx context.Context, _ *mcp.CallToolRequest, _ AuthStatusInput) (*mcp.CallToolResult, AuthStatusOutput, error) {
	status, err := h.pipeline.Status(ctx)
	if err != nil {
		return nil, AuthStatusOutput{}, toolError(err)
	}

	out := AuthStatusOutput{Authenticated: status.Authenticated, HasRefreshToken: status.HasRefreshToken}
	if status.Expiry != nil {
		out.Expiry = status.Expiry.Format(time.RFC3339)
	}
	return nil, out, nil
}

type ListEventsInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"Case-sensitive text the meeting title must contain; empty matches all"`
}

type ListEventsOutput struct {
	Events []EventPayload `json:"events"`
	Count  int            `json:"count"`
}

func (h *CalendarHandlers) ListEvents(ctx context.Context, _ *mcp.CallToolRequest, input ListEventsInput) (*mcp.CallToolResult, ListEventsOutput, error) {
	evs, err := h.pipeline.ListEvents(ctx, input.Filter)
	if err != nil {
		return nil, ListEventsOutput{}, toolError(err)
	}

	out := ListEventsOutput{Events: make([]EventPayload, len(evs)), Count: len(evs)}
	for i, e := range evs {
		out.Events[i] = eventToPayload(e)
	}
	return nil, out, nil
}

type SendReminderInput struct {
	Event  EventPayload `json:"event" jsonschema:"Event as returned by list_events (required)"`
	Force  bool         `json:"force,omitempty" jsonschema:"Resend to attendees already reminded"`
	DryRun bool         `json:"dry_run,omitempty" jsonschema:"Compose reminders without sending"`
}

type SendReminderOutput struct {
	Message string                 `json:"message"`
	Report  *models.ReminderReport `json:"report"`
}

func (h *CalendarHandlers) SendReminder(ctx context.Context, _ *mcp.CallToolRequest, input SendReminderInput) (*mcp.CallToolResult, SendReminderOutput, error) {
	event, err := payloadToEvent(input.Event)
	if err != nil {
		return nil, SendReminderOutput{}, err
	}

	report, err := h.pipeline.SendReminder(ctx, event, reminder.Options{Force: input.Force, DryRun: input.DryRun})
	if err != nil {
		return nil, SendReminderOutput{}, toolError(err)
	}
	return nil, SendReminderOutput{Message: pipeline.MsgEmailsSent, Report: report}, nil
}

type SendAllRemindersInput struct {
	Events []EventPayload `json:"events" jsonschema:"Events as returned by list_events (required)"`
	Force  bool           `json:"force,omitempty" jsonschema:"Resend to attendees already reminded"`
	DryRun bool           `json:"dry_run,omitempty" jsonschema:"Compose reminders without sending"`
}

type SendAllRemindersOutput struct {
	Message string              `json:"message"`
	Batch   *models.BatchReport `json:"batch"`
}

func (h *CalendarHandlers) SendAllReminders(ctx context.Context, _ *mcp.CallToolRequest, input SendAllRemindersInput) (*mcp.CallToolResult, SendAllRemindersOutput, error) {
	evs := make([]models.Event, 0, len(input.Events))
	for _, p := range input.Events {
		e, err := payloadToEvent(p)
		if err != nil {
			return nil, SendAllRemindersOutput{}, err
		}
		evs = append(evs, e)
	}

	batch, err := h.pipeline.SendAllReminders(ctx, evs, reminder.Options{Force: input.Force, DryRun: input.DryRun})
	if err != nil {
		if batch != nil {
			return nil, SendAllRemindersOutput{}, fmt.Errorf("%w after %d of %d events", toolError(err), batch.Completed, batch.Total)
		}
		return nil, SendAllRemindersOutput{}, toolError(err)
	}
	return nil, SendAllRemindersOutput{Message: pipeline.MsgAllRemindersSent, Batch: batch}, nil
}
