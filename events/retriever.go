// ABOUTME: Lists upcoming calendar events matching a title filter
// ABOUTME: Enriches each event's attendees with directory names using a bounded fan-out
package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/models"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/calendar/v3"
)

// FetchError means the calendar provider could not be queried.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch events: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NameResolver looks up a display name for an email address.
type NameResolver interface {
	ResolveName(ctx context.Context, session *auth.Session, email string) (string, error)
}

// Retriever fetches and enriches upcoming events.
type Retriever struct {
	resolver    NameResolver
	calendarID  string
	maxEvents   int64
	concurrency int
	logger      *log.Logger
	now         func() time.Time
}

// NewRetriever creates a Retriever reading calendarID.
func NewRetriever(resolver NameResolver, calendarID string, maxEvents int64, concurrency int, logger *log.Logger) *Retriever {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Retriever{
		resolver:    resolver,
		calendarID:  calendarID,
		maxEvents:   maxEvents,
		concurrency: concurrency,
		logger:      logger.With("component", "events"),
		now:         time.Now,
	}
}

// List returns upcoming events whose summary contains titleFilter (case-sensitive).
// An empty filter matches every event. Attendee lookups that fail leave the name empty.
func (r *Retriever) List(ctx context.Context, session *auth.Session, titleFilter string) ([]models.Event, error) {
	svc, err := session.Calendar(ctx)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	resp, err := svc.Events.List(r.calendarID).
		TimeMin(r.now().Format(time.RFC3339)).
		MaxResults(r.maxEvents).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		r.logger.Error("Calendar request failed", "error", err)
		return nil, &FetchError{Err: err}
	}

	out := make([]models.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if titleFilter != "" && !strings.Contains(item.Summary, titleFilter) {
			continue
		}

		event := r.convert(item)
		if err := r.enrich(ctx, session, &event, item.Attendees); err != nil {
			return nil, err
		}
		out = append(out, event)
	}

	r.logger.Info("Listed events", "filter", titleFilter, "fetched", len(resp.Items), "matched", len(out))
	return out, nil
}

func (r *Retriever) convert(item *calendar.Event) models.Event {
	event := models.Event{
		ID:        item.Id,
		Summary:   item.Summary,
		Start:     parseStart(item.Start),
		Attendees: make([]models.Attendee, 0, len(item.Attendees)),
	}
	if event.Start.IsZero() {
		r.logger.Warn("Event has no usable start time", "event", item.Id)
	}
	for _, a := range item.Attendees {
		event.Attendees = append(event.Attendees, models.Attendee{
			Email:     a.Email,
			Organizer: a.Organizer,
		})
	}
	return event
}

// enrich resolves every non-organizer attendee concurrently and waits for all of them.
func (r *Retriever) enrich(ctx context.Context, session *auth.Session, event *models.Event, raw []*calendar.EventAttendee) error {
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i := range event.Attendees {
		fallback := raw[i].DisplayName
		if event.Attendees[i].Organizer {
			event.Attendees[i].Name = fallback
			continue
		}

		attendee := &event.Attendees[i]
		g.Go(func() error {
			name, err := r.resolver.ResolveName(ctx, session, attendee.Email)
			if err != nil {
				r.logger.Warn("Attendee lookup failed", "event", event.ID, "email", attendee.Email, "error", err)
				name = ""
			}
			if name == "" {
				name = fallback
			}
			attendee.Name = name
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return &FetchError{Err: fmt.Errorf("failed to enrich event %s: %w", event.ID, err)}
	}
	return nil
}

// parseStart reads a timed start or an all-day date.
func parseStart(start *calendar.EventDateTime) time.Time {
	if start == nil {
		return time.Time{}
	}
	if start.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, start.DateTime); err == nil {
			return t
		}
	}
	if start.Date != "" {
		if t, err := time.Parse("2006-01-02", start.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
