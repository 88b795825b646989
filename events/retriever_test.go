// ABOUTME: Tests for event retrieval and attendee enrichment
// ABOUTME: Uses the fake Calendar API with a scripted name resolver
package events

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/directory"
	"github.com/harperreed/meetingmate/googletest"
	"github.com/harperreed/meetingmate/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

type stubResolver struct {
	mu       sync.Mutex
	names    map[string]string
	fail     map[string]bool
	calls    []string
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *stubResolver) ResolveName(_ context.Context, _ *auth.Session, email string) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, email)
	if s.fail[email] {
		return "", &directory.LookupError{Email: email, Err: errors.New("boom")}
	}
	return s.names[email], nil
}

func seed(fake *googletest.Server) {
	fake.AddEvent("evt1", "Team Sync", "2026-11-02T15:00:00Z",
		"!owner@example.com|Owner", "alice@example.com", "bob@example.com|Bobby")
	fake.AddEvent("evt2", "Budget Review", "2026-11-03T09:30:00-05:00", "carol@example.com")
	fake.AddEvent("evt3", "", "2026-11-04T10:00:00Z")
}

func TestListFiltersBySummary(t *testing.T) {
	fake := googletest.NewServer(t)
	seed(fake)
	r := NewRetriever(&stubResolver{}, "primary", 100, 4, logging.Discard())
	ctx := context.Background()

	events, err := r.List(ctx, fake.Session(), "Team")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Team Sync", events[0].Summary)
	assert.Equal(t, time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC), events[0].Start.UTC())

	events, err = r.List(ctx, fake.Session(), "team")
	require.NoError(t, err)
	assert.Empty(t, events, "filter is case-sensitive")

	events, err = r.List(ctx, fake.Session(), "")
	require.NoError(t, err)
	assert.Len(t, events, 3, "empty filter matches everything")

	events, err = r.List(ctx, fake.Session(), "Offsite")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestListQueryParameters(t *testing.T) {
	fake := googletest.NewServer(t)
	r := NewRetriever(&stubResolver{}, "primary", 100, 4, logging.Discard())
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	_, err := r.List(context.Background(), fake.Session(), "")
	require.NoError(t, err)

	require.Len(t, fake.EventQueries, 1)
	q := fake.EventQueries[0]
	assert.Equal(t, "2026-10-19T12:00:00Z", q.Get("timeMin"))
	assert.Equal(t, "100", q.Get("maxResults"))
	assert.Equal(t, "true", q.Get("singleEvents"))
	assert.Equal(t, "startTime", q.Get("orderBy"))
}

func TestListResolvesEachAttendeeByOwnEmail(t *testing.T) {
	fake := googletest.NewServer(t)
	seed(fake)
	resolver := &stubResolver{names: map[string]string{
		"alice@example.com": "Alice Example",
		"owner@example.com": "Should Not Be Used",
	}}
	r := NewRetriever(resolver, "primary", 100, 4, logging.Discard())

	events, err := r.List(context.Background(), fake.Session(), "Team Sync")
	require.NoError(t, err)
	require.Len(t, events, 1)

	attendees := events[0].Attendees
	require.Len(t, attendees, 3)
	assert.True(t, attendees[0].Organizer)
	assert.Equal(t, "Owner", attendees[0].Name)
	assert.Equal(t, "Alice Example", attendees[1].Name)
	assert.Equal(t, "Bobby", attendees[2].Name, "provider name is used when the directory has none")

	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, resolver.calls)
}

func TestListLookupFailureDegradesToEmptyName(t *testing.T) {
	fake := googletest.NewServer(t)
	fake.AddEvent("evt1", "Team Sync", "2026-11-02T15:00:00Z", "alice@example.com", "dave@example.com")
	resolver := &stubResolver{
		names: map[string]string{"dave@example.com": "Dave"},
		fail:  map[string]bool{"alice@example.com": true},
	}
	r := NewRetriever(resolver, "primary", 100, 4, logging.Discard())

	events, err := r.List(context.Background(), fake.Session(), "Team")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "", events[0].Attendees[0].Name)
	assert.Equal(t, "Dave", events[0].Attendees[1].Name)
}

func TestListBoundsConcurrency(t *testing.T) {
	fake := googletest.NewServer(t)
	fake.AddEvent("evt1", "Big Meeting", "2026-11-02T15:00:00Z",
		"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com", "f@example.com")
	resolver := &stubResolver{delay: 20 * time.Millisecond}
	r := NewRetriever(resolver, "primary", 100, 2, logging.Discard())

	events, err := r.List(context.Background(), fake.Session(), "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Len(t, resolver.calls, 6, "every lookup completes before the event is returned")
	assert.LessOrEqual(t, resolver.peak.Load(), int32(2))
}

func TestListProviderFailure(t *testing.T) {
	fake := googletest.NewServer(t)
	fake.CalendarStatus = http.StatusUnauthorized
	r := NewRetriever(&stubResolver{}, "primary", 100, 4, logging.Discard())

	_, err := r.List(context.Background(), fake.Session(), "")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

type cancellingResolver struct {
	cancel context.CancelFunc
}

func (c cancellingResolver) ResolveName(ctx context.Context, _ *auth.Session, _ string) (string, error) {
	c.cancel()
	return "", ctx.Err()
}

func TestListCancelledDuringEnrichment(t *testing.T) {
	fake := googletest.NewServer(t)
	seed(fake)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRetriever(cancellingResolver{cancel: cancel}, "primary", 100, 4, logging.Discard())

	_, err := r.List(ctx, fake.Session(), "Team")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListWithDirectoryResolver(t *testing.T) {
	fake := googletest.NewServer(t)
	seed(fake)
	fake.AddContact("Alice Example", "alice@example.com")
	resolver, err := directory.NewResolver(1000, time.Minute, logging.Discard())
	require.NoError(t, err)
	r := NewRetriever(resolver, "primary", 100, 4, logging.Discard())

	events, err := r.List(context.Background(), fake.Session(), "Team")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Alice Example", events[0].Attendees[1].Name)
	assert.LessOrEqual(t, fake.PeopleCalls(), 2)
}

func TestParseStart(t *testing.T) {
	assert.Equal(t, time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC),
		parseStart(&calendar.EventDateTime{Date: "2026-12-24"}))
	assert.True(t, parseStart(nil).IsZero())
	assert.True(t, parseStart(&calendar.EventDateTime{DateTime: "soon"}).IsZero())
}
