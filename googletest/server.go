// ABOUTME: In-process fake of the Google token, Calendar, People, and Gmail endpoints
// ABOUTME: Lets package tests drive the pipeline end to end without network access
package googletest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/config"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/people/v1"
)

// ValidCode is the only authorization code the fake token endpoint accepts.
const ValidCode = "abc123"

// SentMessage is a message received by the fake Gmail send endpoint.
type SentMessage struct {
	ID      string
	To      string
	Subject string
	Body    string
	Raw     string
}

// Server fakes the Google endpoints used by the pipeline.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// RefreshToken is returned by the token endpoint; empty simulates a grant without one.
	RefreshToken string

	Events   []*calendar.Event
	Contacts []*people.Person

	// Non-zero values make the corresponding endpoint fail with that status.
	CalendarStatus int
	PeopleStatus   int

	// PeopleGate, when set, holds other-contacts responses until it is closed.
	PeopleGate chan struct{}

	// FailRecipients makes sends to these addresses fail.
	FailRecipients map[string]bool

	Sent          []SentMessage
	EventQueries  []url.Values
	PeopleQueries []url.Values
	TokenRequests int
}

// NewServer starts a fake and registers its shutdown with t.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		RefreshToken:   "test-refresh",
		FailRecipients: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", s.handleToken)
	mux.HandleFunc("/calendar/v3/calendars/", s.handleEvents)
	mux.HandleFunc("/v1/otherContacts", s.handleOtherContacts)
	mux.HandleFunc("/gmail/v1/users/me/messages/send", s.handleSend)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Config returns a configuration pointing every Google endpoint at the fake.
func (s *Server) Config() *config.Config {
	cfg := config.Default()
	cfg.ClientID = "test-client"
	cfg.ClientSecret = "test-secret"
	cfg.AuthURL = s.URL + "/auth"
	cfg.TokenURL = s.URL + "/token"
	cfg.APIBaseURL = s.URL
	return cfg
}

// Session returns a session authorized with a static token against the fake.
func (s *Server) Session() *auth.Session {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-access", TokenType: "Bearer"})
	return auth.NewSession(oauth2.NewClient(context.Background(), src), s.URL)
}

// AddEvent appends a calendar event. Attendees are given as "email", "email|Name", or "!email" for the organizer.
func (s *Server) AddEvent(id, summary, start string, attendees ...string) {
	ev := &calendar.Event{
		Id:      id,
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start},
	}
	for _, a := range attendees {
		att := &calendar.EventAttendee{}
		if strings.HasPrefix(a, "!") {
			att.Organizer = true
			a = a[1:]
		}
		email, name, _ := strings.Cut(a, "|")
		att.Email = email
		att.DisplayName = name
		ev.Attendees = append(ev.Attendees, att)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev)
}

// AddContact appends an other-contact with a display name and one or more emails.
func (s *Server) AddContact(name string, emails ...string) {
	p := &people.Person{}
	if name != "" {
		p.Names = []*people.Name{{DisplayName: name}}
	}
	for _, e := range emails {
		p.EmailAddresses = append(p.EmailAddresses, &people.EmailAddress{Value: e})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Contacts = append(s.Contacts, p)
}

// SentMessages returns a copy of everything sent so far.
func (s *Server) SentMessages() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.Sent...)
}

// PeopleCalls returns how many times the other-contacts listing was requested.
func (s *Server) PeopleCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.PeopleQueries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": http.StatusText(status),
		},
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	s.mu.Lock()
	s.TokenRequests++
	refresh := s.RefreshToken
	s.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") != ValidCode {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "Malformed auth code.",
			})
			return
		}
	case "refresh_token":
		if r.PostForm.Get("refresh_token") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	resp := map[string]any{
		"access_token": "test-access",
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
	if refresh != "" {
		resp["refresh_token"] = refresh
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/events") {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	s.EventQueries = append(s.EventQueries, r.URL.Query())
	status := s.CalendarStatus
	items := append([]*calendar.Event(nil), s.Events...)
	s.mu.Unlock()

	if status != 0 {
		writeAPIError(w, status)
		return
	}
	writeJSON(w, http.StatusOK, &calendar.Events{Items: items})
}

func (s *Server) handleOtherContacts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.PeopleQueries = append(s.PeopleQueries, r.URL.Query())
	status := s.PeopleStatus
	contacts := append([]*people.Person(nil), s.Contacts...)
	gate := s.PeopleGate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if status != 0 {
		writeAPIError(w, status)
		return
	}
	writeJSON(w, http.StatusOK, &people.ListOtherContactsResponse{OtherContacts: contacts})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Raw string `json:"raw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest)
		return
	}

	raw, err := base64.RawURLEncoding.DecodeString(body.Raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest)
		return
	}

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest)
		return
	}
	to := msg.Header.Get("To")
	if addr, err := mail.ParseAddress(to); err == nil {
		to = addr.Address
	}
	subject, _ := new(mimeDecoder).DecodeHeader(msg.Header.Get("Subject"))
	text := readAll(msg)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailRecipients[to] {
		writeAPIError(w, http.StatusInternalServerError)
		return
	}

	sent := SentMessage{
		ID:      fmt.Sprintf("msg-%d", len(s.Sent)+1),
		To:      to,
		Subject: subject,
		Body:    text,
		Raw:     string(raw),
	}
	s.Sent = append(s.Sent, sent)
	writeJSON(w, http.StatusOK, map[string]string{"id": sent.ID, "threadId": "thread-" + sent.ID})
}
