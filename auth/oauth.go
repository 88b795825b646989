// ABOUTME: OAuth session factory for the Google APIs
// ABOUTME: Builds authorization URLs, exchanges codes, and opens sessions from stored credentials
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/harperreed/meetingmate/config"
	"github.com/harperreed/meetingmate/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// NewOAuthConfig creates the OAuth2 config for the Google APIs from process configuration.
func NewOAuthConfig(cfg *config.Config) *oauth2.Config {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint:     endpoint,
	}
}

// SessionFactory turns codes and stored credentials into authorized sessions.
type SessionFactory struct {
	oauth      *oauth2.Config
	store      CredentialStore
	state      string
	apiBaseURL string
	httpClient *http.Client
	logger     *log.Logger
}

// Option customizes a SessionFactory.
type Option func(*SessionFactory)

// WithHTTPClient sets the base client used for token and API requests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *SessionFactory) {
		f.httpClient = c
	}
}

// NewSessionFactory creates a factory backed by store.
func NewSessionFactory(cfg *config.Config, store CredentialStore, logger *log.Logger, opts ...Option) *SessionFactory {
	f := &SessionFactory{
		oauth:      NewOAuthConfig(cfg),
		store:      store,
		state:      cfg.OAuthState,
		apiBaseURL: cfg.APIBaseURL,
		logger:     logger.With("component", "auth"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AuthorizationURL returns the provider URL the user visits to grant access.
// It is deterministic for a given configuration.
func (f *SessionFactory) AuthorizationURL() string {
	return f.oauth.AuthCodeURL(f.state, oauth2.AccessTypeOffline)
}

func (f *SessionFactory) withClient(ctx context.Context) context.Context {
	if f.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	}
	return ctx
}

// CompleteAuthorization exchanges code for a credential and stores it, replacing any previous one.
func (f *SessionFactory) CompleteAuthorization(ctx context.Context, code string) (*models.Credential, error) {
	if code == "" {
		return nil, &ExchangeError{Err: errors.New("authorization code is required")}
	}

	token, err := f.oauth.Exchange(f.withClient(ctx), code)
	if err != nil {
		f.logger.Error("Token exchange failed", "error", err)
		return nil, &ExchangeError{Err: err}
	}

	cred := models.CredentialFromToken(token)
	if cred.RefreshToken == "" {
		f.logger.Warn("Provider returned no refresh token; access ends when the token expires")
	}

	if err := f.store.Save(ctx, cred); err != nil {
		f.logger.Error("Failed to persist credential", "error", err)
		return nil, &PersistError{Err: err}
	}

	f.logger.Info("Authorization complete", "expiry", cred.Expiry)
	return cred, nil
}

// Credential returns the stored credential or ErrNotAuthenticated.
func (f *SessionFactory) Credential(ctx context.Context) (*models.Credential, error) {
	cred, err := f.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return cred, nil
}

// LoadSession opens a session from the stored credential.
// Expiry is not checked here; the transport refreshes when a refresh token exists.
func (f *SessionFactory) LoadSession(ctx context.Context) (*Session, error) {
	cred, err := f.Credential(ctx)
	if err != nil {
		return nil, err
	}

	client := f.oauth.Client(f.withClient(ctx), cred.Token())
	return newSession(client, f.apiBaseURL), nil
}
