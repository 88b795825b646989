// ABOUTME: Authorized session handing out Calendar, Gmail, and People services
// ABOUTME: All services share one OAuth HTTP client
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

// Session is an authorized handle on the Google APIs for one flow.
type Session struct {
	client  *http.Client
	baseURL string
}

func newSession(client *http.Client, baseURL string) *Session {
	return &Session{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// NewSession wraps an already authorized HTTP client. baseURL may be empty.
func NewSession(client *http.Client, baseURL string) *Session {
	return newSession(client, baseURL)
}

func (s *Session) options(path string) []option.ClientOption {
	opts := []option.ClientOption{option.WithHTTPClient(s.client)}
	if s.baseURL != "" {
		opts = append(opts, option.WithEndpoint(s.baseURL+path))
	}
	return opts
}

// Calendar returns a Calendar API client.
func (s *Session) Calendar(ctx context.Context) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx, s.options("/calendar/v3/")...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// Gmail returns a Gmail API client.
func (s *Session) Gmail(ctx context.Context) (*gmail.Service, error) {
	svc, err := gmail.NewService(ctx, s.options("/")...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return svc, nil
}

// People returns a People API client.
func (s *Session) People(ctx context.Context) (*people.Service, error) {
	svc, err := people.NewService(ctx, s.options("/")...)
	if err != nil {
		return nil, fmt.Errorf("failed to create people service: %w", err)
	}
	return svc, nil
}
