// ABOUTME: Coordinates authentication, event listing, and reminder dispatch
// ABOUTME: Each operation loads its own session and reports typed errors to the boundary
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/events"
	"github.com/harperreed/meetingmate/models"
	"github.com/harperreed/meetingmate/reminder"
)

// ValidationError means a caller-supplied event payload is unusable.
type ValidationError struct {
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid event %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("invalid event: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthStatus describes the stored credential.
type AuthStatus struct {
	Authenticated   bool       `json:"authenticated"`
	Expiry          *time.Time `json:"expiry,omitempty"`
	HasRefreshToken bool       `json:"has_refresh_token"`
}

// Orchestrator is the single entry point used by every boundary adapter.
type Orchestrator struct {
	sessions   *auth.SessionFactory
	retriever  *events.Retriever
	dispatcher *reminder.Dispatcher
	logger     *log.Logger
}

// New wires an Orchestrator.
func New(sessions *auth.SessionFactory, retriever *events.Retriever, dispatcher *reminder.Dispatcher, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		sessions:   sessions,
		retriever:  retriever,
		dispatcher: dispatcher,
		logger:     logger.With("component", "pipeline"),
	}
}

// AuthorizationURL returns the URL the operator visits to grant access.
func (o *Orchestrator) AuthorizationURL() string {
	return o.sessions.AuthorizationURL()
}

// Authenticate exchanges code and stores the credential.
func (o *Orchestrator) Authenticate(ctx context.Context, code string) error {
	_, err := o.sessions.CompleteAuthorization(ctx, code)
	return err
}

// Status reports whether a credential is stored.
func (o *Orchestrator) Status(ctx context.Context) (*AuthStatus, error) {
	cred, err := o.sessions.Credential(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return &AuthStatus{}, nil
	}
	if err != nil {
		return nil, err
	}

	status := &AuthStatus{Authenticated: true, HasRefreshToken: cred.RefreshToken != ""}
	if !cred.Expiry.IsZero() {
		expiry := cred.Expiry
		status.Expiry = &expiry
	}
	return status, nil
}

// ListEvents returns upcoming events matching filter with attendee names filled in.
func (o *Orchestrator) ListEvents(ctx context.Context, filter string) ([]models.Event, error) {
	session, err := o.loadSession(ctx, func(err error) error { return &events.FetchError{Err: err} })
	if err != nil {
		return nil, err
	}
	return o.retriever.List(ctx, session, filter)
}

// SendReminder validates event and emails its non-organizer attendees.
func (o *Orchestrator) SendReminder(ctx context.Context, event models.Event, opts reminder.Options) (*models.ReminderReport, error) {
	if err := event.Validate(); err != nil {
		return nil, &ValidationError{Index: -1, Err: err}
	}

	session, err := o.loadSession(ctx, func(err error) error { return &reminder.SendError{Err: err} })
	if err != nil {
		return nil, err
	}
	return o.dispatcher.Send(ctx, session, event, opts)
}

// SendAllReminders validates every event, then sends them in order, stopping at the first failure.
func (o *Orchestrator) SendAllReminders(ctx context.Context, evs []models.Event, opts reminder.Options) (*models.BatchReport, error) {
	for i := range evs {
		if err := evs[i].Validate(); err != nil {
			return nil, &ValidationError{Index: i, Err: err}
		}
	}

	session, err := o.loadSession(ctx, func(err error) error { return &reminder.SendError{Err: err} })
	if err != nil {
		return nil, err
	}
	return o.dispatcher.SendAll(ctx, session, evs, opts)
}

// RemindMatching lists events matching filter and sends reminders for all of them with one session.
func (o *Orchestrator) RemindMatching(ctx context.Context, filter string, opts reminder.Options) (*models.BatchReport, error) {
	session, err := o.loadSession(ctx, func(err error) error { return &events.FetchError{Err: err} })
	if err != nil {
		return nil, err
	}

	evs, err := o.retriever.List(ctx, session, filter)
	if err != nil {
		return nil, err
	}
	return o.dispatcher.SendAll(ctx, session, evs, opts)
}

// loadSession keeps ErrNotAuthenticated distinct and wraps other store failures with wrap.
func (o *Orchestrator) loadSession(ctx context.Context, wrap func(error) error) (*auth.Session, error) {
	session, err := o.sessions.LoadSession(ctx)
	if err == nil {
		return session, nil
	}
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return nil, auth.ErrNotAuthenticated
	}
	o.logger.Error("Failed to load session", "error", err)
	return nil, wrap(err)
}
