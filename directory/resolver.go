// ABOUTME: Resolves attendee emails to display names from the other-contacts directory
// ABOUTME: Caches names per email with a TTL and collapses concurrent directory fetches
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/ristretto"
	"github.com/harperreed/meetingmate/auth"
	"golang.org/x/sync/singleflight"
)

// LookupError means the directory could not be queried.
type LookupError struct {
	Email string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("failed to look up %s in directory: %v", e.Email, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Resolver maps an email to the first display name the directory holds for it.
type Resolver struct {
	pageSize int64
	ttl      time.Duration
	cache    *ristretto.Cache
	group    singleflight.Group
	logger   *log.Logger
}

// NewResolver creates a Resolver. A zero ttl disables caching.
func NewResolver(pageSize int64, ttl time.Duration, logger *log.Logger) (*Resolver, error) {
	r := &Resolver{
		pageSize: pageSize,
		ttl:      ttl,
		logger:   logger.With("component", "directory"),
	}

	if ttl > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 100_000,
			MaxCost:     10_000,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create name cache: %w", err)
		}
		r.cache = cache
	}

	return r, nil
}

// normalizeEmail lowercases and trims email for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveName returns the display name for email, or "" when the directory has no match.
func (r *Resolver) ResolveName(ctx context.Context, session *auth.Session, email string) (string, error) {
	key := normalizeEmail(email)
	if key == "" {
		return "", nil
	}

	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			return v.(string), nil
		}
	}

	// The shared fetch outlives any one caller; each caller still stops waiting on its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan("other-contacts", func() (interface{}, error) {
		return r.fetchIndex(flightCtx, session)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", &LookupError{Email: email, Err: ctx.Err()}
	}
	if res.Err != nil {
		return "", &LookupError{Email: email, Err: res.Err}
	}

	index := res.Val.(map[string]string)
	name := index[key]

	if r.cache != nil {
		// Remember misses too, so unknown attendees do not trigger a fetch each time.
		r.cache.SetWithTTL(key, name, 1, r.ttl)
		r.cache.Wait()
	}

	r.logger.Debug("Resolved attendee", "email", key, "found", name != "")
	return name, nil
}

// fetchIndex lists other-contacts once and indexes them by every email they carry.
func (r *Resolver) fetchIndex(ctx context.Context, session *auth.Session) (map[string]string, error) {
	svc, err := session.People(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.OtherContacts.List().
		ReadMask("names,emailAddresses").
		PageSize(r.pageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list other contacts: %w", err)
	}

	index := make(map[string]string)
	for _, person := range resp.OtherContacts {
		name := ""
		if len(person.Names) > 0 {
			name = person.Names[0].DisplayName
		}
		for _, addr := range person.EmailAddresses {
			key := normalizeEmail(addr.Value)
			if key == "" {
				continue
			}
			// First contact carrying an address wins
			if _, seen := index[key]; !seen {
				index[key] = name
			}
		}
	}

	if r.cache != nil {
		for key, name := range index {
			r.cache.SetWithTTL(key, name, 1, r.ttl)
		}
		r.cache.Wait()
	}

	r.logger.Debug("Fetched other contacts", "contacts", len(resp.OtherContacts), "addresses", len(index))
	return index, nil
}
