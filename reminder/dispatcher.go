// ABOUTME: Sends reminder emails to every non-organizer attendee of an event
// ABOUTME: Skips attendees already reminded and stops at the first failed send
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/models"
	"github.com/oklog/ulid/v2"
	"google.golang.org/api/gmail/v1"
)

// SendError means a reminder could not be delivered. Earlier sends are not undone.
type SendError struct {
	Email string
	Err   error
}

func (e *SendError) Error() string {
	if e.Email == "" {
		return fmt.Sprintf("failed to send reminders: %v", e.Err)
	}
	return fmt.Sprintf("failed to send reminder to %s: %v", e.Email, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// NameResolver looks up a display name for an email address.
type NameResolver interface {
	ResolveName(ctx context.Context, session *auth.Session, email string) (string, error)
}

// SentLog remembers which occurrences have been reminded.
type SentLog interface {
	WasSent(ctx context.Context, eventID string, start time.Time, email string) (bool, error)
	Record(ctx context.Context, eventID string, start time.Time, email, summary, messageID string) error
}

// Options tunes a send.
type Options struct {
	// Force resends to attendees already recorded in the sent log.
	Force bool
	// DryRun composes messages without sending or recording them.
	DryRun bool
}

// Dispatcher emails reminders through Gmail.
type Dispatcher struct {
	resolver  NameResolver
	sentLog   SentLog
	signature string
	logger    *log.Logger
}

// NewDispatcher creates a Dispatcher. sentLog may be nil to send unconditionally.
func NewDispatcher(resolver NameResolver, sentLog SentLog, signature string, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		resolver:  resolver,
		sentLog:   sentLog,
		signature: signature,
		logger:    logger.With("component", "reminder"),
	}
}

// Send emails every non-organizer attendee of event. On failure it returns the
// report so far together with a *SendError.
func (d *Dispatcher) Send(ctx context.Context, session *auth.Session, event models.Event, opts Options) (*models.ReminderReport, error) {
	report := &models.ReminderReport{
		EventID: event.ID,
		Summary: event.Summary,
		Results: []models.ReminderResult{},
	}

	var svc *gmail.Service
	if !opts.DryRun {
		var err error
		svc, err = session.Gmail(ctx)
		if err != nil {
			return report, &SendError{Err: err}
		}
	}

	for _, attendee := range event.Recipients() {
		if d.alreadySent(ctx, event, attendee, opts) {
			report.Add(models.ReminderResult{Email: attendee.Email, Name: attendee.Name, Status: models.StatusSkipped})
			continue
		}

		name := d.nameFor(ctx, session, attendee)

		msg, err := BuildMessage(attendee, name, event, d.signature)
		if err != nil {
			report.Add(models.ReminderResult{Email: attendee.Email, Name: name, Status: models.StatusFailed, Error: err.Error()})
			return report, &SendError{Email: attendee.Email, Err: err}
		}

		if opts.DryRun {
			report.Add(models.ReminderResult{Email: attendee.Email, Name: name, Status: models.StatusDryRun})
			continue
		}

		sent, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: EncodeRaw(msg)}).Context(ctx).Do()
		if err != nil {
			d.logger.Error("Reminder send failed", "event", event.ID, "email", attendee.Email, "error", err)
			report.Add(models.ReminderResult{Email: attendee.Email, Name: name, Status: models.StatusFailed, Error: err.Error()})
			return report, &SendError{Email: attendee.Email, Err: err}
		}

		report.Add(models.ReminderResult{Email: attendee.Email, Name: name, Status: models.StatusSent, MessageID: sent.Id})
		d.logger.Info("Reminder sent", "event", event.ID, "email", attendee.Email, "message", sent.Id)

		if d.sentLog != nil {
			if err := d.sentLog.Record(ctx, logKey(event), event.Start, attendee.Email, event.Summary, sent.Id); err != nil {
				// The mail is out; a missing log row only risks a duplicate later.
				d.logger.Warn("Failed to record reminder", "event", event.ID, "email", attendee.Email, "error", err)
			}
		}
	}

	return report, nil
}

func (d *Dispatcher) alreadySent(ctx context.Context, event models.Event, attendee models.Attendee, opts Options) bool {
	if d.sentLog == nil || opts.Force || opts.DryRun {
		return false
	}
	sent, err := d.sentLog.WasSent(ctx, logKey(event), event.Start, attendee.Email)
	if err != nil {
		d.logger.Warn("Sent log unavailable, sending anyway", "event", event.ID, "email", attendee.Email, "error", err)
		return false
	}
	return sent
}

// logKey identifies an event in the sent log. Payloads without an id fall back to the summary.
func logKey(event models.Event) string {
	if event.ID != "" {
		return event.ID
	}
	return "summary:" + event.Summary
}

// nameFor prefers the name carried on the payload and falls back to the directory.
func (d *Dispatcher) nameFor(ctx context.Context, session *auth.Session, attendee models.Attendee) string {
	if attendee.Name != "" || d.resolver == nil {
		return attendee.Name
	}
	name, err := d.resolver.ResolveName(ctx, session, attendee.Email)
	if err != nil {
		d.logger.Warn("Attendee lookup failed", "email", attendee.Email, "error", err)
		return ""
	}
	return name
}

// SendAll sends reminders for each event in order and aborts at the first failure.
// The batch report records how many events completed before the failure.
func (d *Dispatcher) SendAll(ctx context.Context, session *auth.Session, events []models.Event, opts Options) (*models.BatchReport, error) {
	batch := &models.BatchReport{
		RunID:   ulid.Make().String(),
		Reports: []*models.ReminderReport{},
		Total:   len(events),
	}
	logger := d.logger.With("run", batch.RunID)

	for _, event := range events {
		report, err := d.Send(ctx, session, event, opts)
		if report != nil {
			batch.Reports = append(batch.Reports, report)
		}
		if err != nil {
			logger.Error("Batch stopped", "event", event.ID, "completed", batch.Completed, "total", batch.Total)
			return batch, err
		}
		batch.Completed++
	}

	logger.Info("Batch complete", "events", batch.Completed)
	return batch, nil
}
