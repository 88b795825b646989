// ABOUTME: Data models for the meeting reminder pipeline
// ABOUTME: Defines Credential, Event, Attendee, and reminder report structs
package models

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/oauth2"
)

// Credential is the persisted OAuth grant. Only one exists per store.
type Credential struct {
	AccessToken  string    `json:"access_token" db:"access_token"`
	TokenType    string    `json:"token_type,omitempty" db:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty" db:"refresh_token"`
	Expiry       time.Time `json:"expiry,omitempty" db:"expiry"`
}

// CredentialFromToken converts an oauth2 token into a Credential.
func CredentialFromToken(token *oauth2.Token) *Credential {
	if token == nil {
		return nil
	}
	return &Credential{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
}

// Token converts the Credential back into an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// Attendee is one participant of an Event. Name is always serialized, even when empty.
type Attendee struct {
	Email     string `json:"email" jsonschema:"Attendee email address"`
	Name      string `json:"name" jsonschema:"Display name, empty when unknown"`
	Organizer bool   `json:"organizer,omitempty" jsonschema:"True when the attendee organizes the meeting"`
}

// Event is a calendar meeting as handed to callers and back to the dispatcher.
type Event struct {
	ID        string     `json:"id,omitempty" jsonschema:"Provider event id"`
	Summary   string     `json:"summary" jsonschema:"Meeting title"`
	Start     time.Time  `json:"start" jsonschema:"Meeting start time (RFC 3339)"`
	Attendees []Attendee `json:"attendees" jsonschema:"Meeting attendees"`
}

// Validate checks that an event supplied by a caller can be used to send reminders.
// Any event the retriever lists passes: summaries and attendees may be empty.
func (e *Event) Validate() error {
	var errs []error
	if e.Start.IsZero() {
		errs = append(errs, errors.New("start is required"))
	}
	for i, a := range e.Attendees {
		if _, err := mail.ParseAddress(a.Email); err != nil {
			errs = append(errs, fmt.Errorf("attendee %d has invalid email %q", i, a.Email))
		}
	}
	return errors.Join(errs...)
}

// Recipients returns the attendees that should receive a reminder.
func (e *Event) Recipients() []Attendee {
	var out []Attendee
	for _, a := range e.Attendees {
		if !a.Organizer {
			out = append(out, a)
		}
	}
	return out
}

// ReminderStatus describes what happened to one attendee during a send.
type ReminderStatus string

const (
	StatusSent    ReminderStatus = "sent"
	StatusSkipped ReminderStatus = "skipped"
	StatusDryRun  ReminderStatus = "dry_run"
	StatusFailed  ReminderStatus = "failed"
)

// ReminderResult is the per-attendee outcome of a send.
type ReminderResult struct {
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Status    ReminderStatus `json:"status"`
	MessageID string         `json:"message_id,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ReminderReport collects the results for one event.
type ReminderReport struct {
	EventID string           `json:"event_id,omitempty"`
	Summary string           `json:"summary"`
	Results []ReminderResult `json:"results"`
	Sent    int              `json:"sent"`
	Skipped int              `json:"skipped"`
	Failed  int              `json:"failed"`
}

// Add records a result and updates the counters.
func (r *ReminderReport) Add(result ReminderResult) {
	r.Results = append(r.Results, result)
	switch result.Status {
	case StatusSent, StatusDryRun:
		r.Sent++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

// BatchReport collects the reports of a send-all run.
type BatchReport struct {
	RunID     string            `json:"run_id"`
	Reports   []*ReminderReport `json:"reports"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
}
