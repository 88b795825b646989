// ABOUTME: Tests for pipeline data models
// ABOUTME: Validates event payload checks, recipient selection, and report counters
package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func validEvent() Event {
	return Event{
		ID:      "evt1",
		Summary: "Team Sync",
		Start:   time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC),
		Attendees: []Attendee{
			{Email: "owner@example.com", Organizer: true},
			{Email: "alice@example.com", Name: "Alice"},
			{Email: "bob@example.com"},
		},
	}
}

func TestEventValidate(t *testing.T) {
	e := validEvent()
	assert.NoError(t, e.Validate())
}

func TestEventValidateRejectsBadPayload(t *testing.T) {
	e := Event{Attendees: []Attendee{{Email: "not-an-address"}}}
	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start is required")
	assert.Contains(t, err.Error(), "invalid email")
}

func TestEventValidateAcceptsListedShapes(t *testing.T) {
	solo := Event{ID: "focus", Start: time.Now()}
	assert.NoError(t, solo.Validate(), "no summary and no attendees is still a valid event")
	assert.Empty(t, solo.Recipients())
}

func TestRecipientsSkipsOrganizer(t *testing.T) {
	e := validEvent()
	recipients := e.Recipients()
	require.Len(t, recipients, 2)
	assert.Equal(t, "alice@example.com", recipients[0].Email)
	assert.Equal(t, "bob@example.com", recipients[1].Email)
}

func TestAttendeeNameAlwaysSerialized(t *testing.T) {
	data, err := json.Marshal(Attendee{Email: "bob@example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"bob@example.com","name":""}`, string(data))
}

func TestCredentialTokenRoundTrip(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	cred := CredentialFromToken(&oauth2.Token{
		AccessToken:  "at",
		TokenType:    "Bearer",
		RefreshToken: "rt",
		Expiry:       expiry,
	})
	require.NotNil(t, cred)
	token := cred.Token()
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "rt", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))

	assert.Nil(t, CredentialFromToken(nil))
}

func TestReminderReportCounters(t *testing.T) {
	var r ReminderReport
	r.Add(ReminderResult{Email: "a@example.com", Status: StatusSent})
	r.Add(ReminderResult{Email: "b@example.com", Status: StatusSkipped})
	r.Add(ReminderResult{Email: "c@example.com", Status: StatusFailed})
	r.Add(ReminderResult{Email: "d@example.com", Status: StatusDryRun})

	assert.Equal(t, 2, r.Sent)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 1, r.Failed)
	assert.Len(t, r.Results, 4)
}
