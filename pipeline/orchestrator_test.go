// ABOUTME: End-to-end tests for the pipeline against the fake Google server
// ABOUTME: Covers the authenticate, list, and send scenarios and error mapping
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/db"
	"github.com/harperreed/meetingmate/events"
	"github.com/harperreed/meetingmate/googletest"
	"github.com/harperreed/meetingmate/logging"
	"github.com/harperreed/meetingmate/models"
	"github.com/harperreed/meetingmate/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(t *testing.T, fake *googletest.Server) *Orchestrator {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	o, err := Build(fake.Config(), auth.NewSQLiteStore(database), db.NewReminderLog(database), logging.Discard())
	require.NoError(t, err)
	return o
}

func seed(fake *googletest.Server) {
	fake.AddEvent("evt1", "Team Sync", "2026-11-02T15:00:00Z", "!owner@example.com", "alice@example.com")
	fake.AddEvent("evt2", "Budget Review", "2026-11-03T09:00:00Z", "!owner@example.com", "bob@example.com")
	fake.AddContact("Alice Example", "alice@example.com")
}

func TestScenarioAuthenticateListSend(t *testing.T) {
	fake := googletest.NewServer(t)
	seed(fake)
	o := newOrchestrator(t, fake)
	ctx := context.Background()

	status, err := o.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Authenticated)

	require.NoError(t, o.Authenticate(ctx, googletest.ValidCode))

	status, err = o.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.True(t, status.HasRefreshToken)
	require.NotNil(t, status.Expiry)

	evs, err := o.ListEvents(ctx, "Team")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "Team Sync", evs[0].Summary)
	assert.Equal(t, "Alice Example", evs[0].Attendees[1].Name)

	report, err := o.SendReminder(ctx, evs[0], reminder.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)

	sent := fake.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, "Hi Alice Example,")
}

func TestOperationsRequireAuthentication(t *testing.T) {
	fake := googletest.NewServer(t)
	seed(fake)
	o := newOrchestrator(t, fake)
	ctx := context.Background()

	_, err := o.ListEvents(ctx, "")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	event := models.Event{Summary: "Team Sync", Start: time.Now(), Attendees: []models.Attendee{{Email: "alice@example.com"}}}
	_, err = o.SendReminder(ctx, event, reminder.Options{})
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	_, err = o.RemindMatching(ctx, "Team", reminder.Options{})
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	assert.Empty(t, fake.SentMessages())
	assert.Empty(t, fake.EventQueries)
}

func TestBadCodeLeavesStoreEmpty(t *testing.T) {
	fake := googletest.NewServer(t)
	o := newOrchestrator(t, fake)
	ctx := context.Background()

	err := o.Authenticate(ctx, "wrong")
	code, msg := StatusFor(err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, MsgTokenExchange, msg)

	_, err = o.ListEvents(ctx, "")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestSendReminderValidatesPayload(t *testing.T) {
	fake := googletest.NewServer(t)
	o := newOrchestrator(t, fake)

	_, err := o.SendReminder(context.Background(), models.Event{Summary: "x"}, reminder.Options{})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = o.SendAllReminders(context.Background(), []models.Event{
		{Summary: "ok", Start: time.Now(), Attendees: []models.Attendee{{Email: "a@example.com"}}},
		{Summary: "bad"},
	}, reminder.Options{})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 1, validationErr.Index)
}

func TestListedEventsSendBackUnchanged(t *testing.T) {
	fake := googletest.NewServer(t)
	fake.AddEvent("evt1", "Team Sync", "2026-11-02T15:00:00Z", "!owner@example.com", "alice@example.com")
	fake.AddEvent("focus", "Focus block", "2026-11-02T17:00:00Z")
	o := newOrchestrator(t, fake)
	ctx := context.Background()
	require.NoError(t, o.Authenticate(ctx, googletest.ValidCode))

	evs, err := o.ListEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, evs, 2)

	batch, err := o.SendAllReminders(ctx, evs, reminder.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Completed)
	assert.Equal(t, 2, batch.Total)
	require.Len(t, batch.Reports, 2)
	assert.Empty(t, batch.Reports[1].Results)
	assert.Len(t, fake.SentMessages(), 1)
}

func TestRemindMatchingSkipsAlreadySent(t *testing.T) {
	fake := googletest.NewServer(t)
	seed(fake)
	o := newOrchestrator(t, fake)
	ctx := context.Background()
	require.NoError(t, o.Authenticate(ctx, googletest.ValidCode))

	batch, err := o.RemindMatching(ctx, "", reminder.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Completed)
	assert.Len(t, fake.SentMessages(), 2)

	batch, err = o.RemindMatching(ctx, "", reminder.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Completed)
	assert.Equal(t, 1, batch.Reports[0].Skipped)
	assert.Len(t, fake.SentMessages(), 2)
}

func TestListEventsProviderFailure(t *testing.T) {
	fake := googletest.NewServer(t)
	fake.CalendarStatus = http.StatusInternalServerError
	o := newOrchestrator(t, fake)
	ctx := context.Background()
	require.NoError(t, o.Authenticate(ctx, googletest.ValidCode))

	_, err := o.ListEvents(ctx, "")
	code, msg := StatusFor(err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, MsgFetchEvents, msg)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{auth.ErrNotAuthenticated, http.StatusBadRequest, MsgAuthRequired},
		{&auth.ExchangeError{Err: errors.New("x")}, http.StatusBadRequest, MsgTokenExchange},
		{&auth.PersistError{Err: errors.New("x")}, http.StatusBadRequest, MsgTokenSave},
		{&events.FetchError{Err: errors.New("x")}, http.StatusBadRequest, MsgFetchEvents},
		{&ValidationError{Index: -1, Err: errors.New("x")}, http.StatusBadRequest, MsgInvalidEvent},
		{&reminder.SendError{Email: "a@example.com", Err: errors.New("x")}, http.StatusInternalServerError, MsgSendFailed},
		{errors.New("other"), http.StatusInternalServerError, MsgInternal},
	}
	for _, tc := range cases {
		code, msg := StatusFor(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.Equal(t, tc.msg, msg, tc.err.Error())
	}
}
