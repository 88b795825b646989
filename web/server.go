// ABOUTME: HTTP API for the reminder pipeline
// ABOUTME: chi router exposing authenticate, list events, and send reminder endpoints
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harperreed/meetingmate/models"
	"github.com/harperreed/meetingmate/pipeline"
	"github.com/harperreed/meetingmate/reminder"
)

// Pipeline is the set of operations the API exposes.
type Pipeline interface {
	AuthorizationURL() string
	Authenticate(ctx context.Context, code string) error
	Status(ctx context.Context) (*pipeline.AuthStatus, error)
	ListEvents(ctx context.Context, filter string) ([]models.Event, error)
	SendReminder(ctx context.Context, event models.Event, opts reminder.Options) (*models.ReminderReport, error)
	SendAllReminders(ctx context.Context, events []models.Event, opts reminder.Options) (*models.BatchReport, error)
}

// Server serves the API.
type Server struct {
	pipeline   Pipeline
	logger     *log.Logger
	corsOrigin string
	oauthState string
	router     chi.Router
}

// NewServer builds the router. corsOrigin may be empty to disable CORS headers.
// A non-empty oauthState must be echoed back to /oauth/callback.
func NewServer(p Pipeline, corsOrigin, oauthState string, logger *log.Logger) *Server {
	s := &Server{
		pipeline:   p,
		logger:     logger.With("component", "web"),
		corsOrigin: corsOrigin,
		oauthState: oauthState,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/healthz", s.handleHealth)
	r.Get("/oauth/callback", s.handleCallback)

	r.Route("/api/calendar", func(r chi.Router) {
		r.Get("/authorize", s.handleAuthorize)
		r.Post("/authenticate", s.handleAuthenticate)
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Post("/sendReminder", s.handleSendReminder)
		r.Post("/sendAllReminders", s.handleSendAllReminders)
	})

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

type authenticateRequest struct {
	Code string `json:"code"`
}

type sendReminderRequest struct {
	Event  models.Event `json:"event"`
	Force  bool         `json:"force,omitempty"`
	DryRun bool         `json:"dry_run,omitempty"`
}

type sendAllRequest struct {
	Events []models.Event `json:"events"`
	Force  bool           `json:"force,omitempty"`
	DryRun bool           `json:"dry_run,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleAuthorize(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"url": s.pipeline.AuthorizationURL()})
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.logger.Warn("Bad authenticate body", "error", err)
		writeError(w, http.StatusBadRequest, pipeline.MsgTokenExchange)
		return
	}

	if err := s.pipeline.Authenticate(r.Context(), req.Code); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": pipeline.MsgAuthenticated})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	q := r.URL.Query()
	if s.oauthState != "" && q.Get("state") != s.oauthState {
		s.logger.Warn("OAuth callback state mismatch", "remote", r.RemoteAddr)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Invalid OAuth state"))
		return
	}

	if err := s.pipeline.Authenticate(r.Context(), q.Get("code")); err != nil {
		status, msg := pipeline.StatusFor(err)
		s.logger.Warn("OAuth callback failed", "error", err)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(msg))
		return
	}
	_, _ = w.Write([]byte("Authorization successful! You can close this window."))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.pipeline.Status(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.pipeline.ListEvents(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evs})
}

func (s *Server) handleSendReminder(w http.ResponseWriter, r *http.Request) {
	var req sendReminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.logger.Warn("Bad sendReminder body", "error", err)
		writeError(w, http.StatusBadRequest, pipeline.MsgInvalidEvent)
		return
	}

	report, err := s.pipeline.SendReminder(r.Context(), req.Event, reminder.Options{Force: req.Force, DryRun: req.DryRun})
	if err != nil {
		status, msg := pipeline.StatusFor(err)
		s.logger.Error("Send reminder failed", "error", err)
		body := map[string]any{"error": msg}
		if report != nil {
			body["report"] = report
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": pipeline.MsgEmailsSent, "report": report})
}

func (s *Server) handleSendAllReminders(w http.ResponseWriter, r *http.Request) {
	var req sendAllRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.logger.Warn("Bad sendAllReminders body", "error", err)
		writeError(w, http.StatusBadRequest, pipeline.MsgInvalidEvent)
		return
	}

	batch, err := s.pipeline.SendAllReminders(r.Context(), req.Events, reminder.Options{Force: req.Force, DryRun: req.DryRun})
	if err != nil {
		status, msg := pipeline.StatusFor(err)
		s.logger.Error("Send all reminders failed", "error", err)
		body := map[string]any{"error": msg}
		if batch != nil {
			body["batch"] = batch
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": pipeline.MsgAllRemindersSent, "batch": batch})
}

// fail writes the boundary response for err and logs the detail.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status, msg := pipeline.StatusFor(err)
	s.logger.Error(msg, "status", status, "error", err)
	writeError(w, status, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
