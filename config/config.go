// ABOUTME: Process configuration for the reminder pipeline
// ABOUTME: Layers defaults, an optional TOML file, .env, and environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// AppName names the XDG data directory and the charm KV database.
const AppName = "meetingmate"

// Token store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreCharm  = "charm"
)

// DefaultScopes is the scope set requested during authorization.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/contacts.other.readonly",
	"https://www.googleapis.com/auth/directory.readonly",
	"https://www.googleapis.com/auth/contacts.readonly",
}

// Config holds every setting injected at startup.
type Config struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
	OAuthState   string   `toml:"oauth_state"`

	// AuthURL and TokenURL override the Google OAuth endpoints when set.
	AuthURL  string `toml:"auth_url"`
	TokenURL string `toml:"token_url"`

	// APIBaseURL points the Calendar, Gmail and People clients at another host.
	APIBaseURL string `toml:"api_base_url"`

	CalendarID        string        `toml:"calendar_id"`
	MaxEvents         int64         `toml:"max_events"`
	DirectoryPageSize int64         `toml:"directory_page_size"`
	DirectoryCacheTTL time.Duration `toml:"directory_cache_ttl"`
	LookupConcurrency int           `toml:"lookup_concurrency"`

	TokenStore string `toml:"token_store"`
	TokenPath  string `toml:"token_path"`
	DBPath     string `toml:"db_path"`

	// CharmHost and CharmAutoSync apply to the charm token store only.
	CharmHost     string `toml:"charm_host"`
	CharmAutoSync bool   `toml:"charm_auto_sync"`

	ListenAddr string `toml:"listen_addr"`
	CORSOrigin string `toml:"cors_origin"`
	Signature  string `toml:"signature"`
	LogLevel   string `toml:"log_level"`
}

// DataDir returns the XDG data directory for the application.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		RedirectURI:       "http://localhost:8080/oauth/callback",
		Scopes:            append([]string(nil), DefaultScopes...),
		OAuthState:        AppName,
		CalendarID:        "primary",
		MaxEvents:         100,
		DirectoryPageSize: 1000,
		DirectoryCacheTTL: 5 * time.Minute,
		LookupConcurrency: 8,
		TokenStore:        StoreFile,
		TokenPath:         filepath.Join(DataDir(), "token.json"),
		DBPath:            filepath.Join(DataDir(), AppName+".db"),
		CharmHost:         "charm.2389.dev",
		CharmAutoSync:     true,
		ListenAddr:        ":8080",
		CORSOrigin:        "*",
		Signature:         "H7 Accelerator Program",
		LogLevel:          "info",
	}
}

// Load builds the configuration. A non-empty path must point at a readable TOML file.
// Values from .env and the environment win over the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// Missing .env is fine.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.ClientID, "CLIENT_ID", "GOOGLE_CLIENT_ID")
	setString(&c.ClientSecret, "CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")
	setString(&c.RedirectURI, "REDIRECT_URI", "GOOGLE_REDIRECT_URI")
	setString(&c.OAuthState, "MEETINGMATE_OAUTH_STATE")
	setString(&c.AuthURL, "MEETINGMATE_AUTH_URL")
	setString(&c.TokenURL, "MEETINGMATE_TOKEN_URL")
	setString(&c.APIBaseURL, "MEETINGMATE_API_BASE_URL")
	setString(&c.CalendarID, "MEETINGMATE_CALENDAR_ID")
	setString(&c.TokenStore, "MEETINGMATE_TOKEN_STORE")
	setString(&c.TokenPath, "MEETINGMATE_TOKEN_PATH")
	setString(&c.DBPath, "MEETINGMATE_DB_PATH")
	setString(&c.CharmHost, "MEETINGMATE_CHARM_HOST", "CHARM_HOST")
	setString(&c.ListenAddr, "MEETINGMATE_LISTEN_ADDR")
	setString(&c.CORSOrigin, "MEETINGMATE_CORS_ORIGIN")
	setString(&c.Signature, "MEETINGMATE_SIGNATURE")
	setString(&c.LogLevel, "MEETINGMATE_LOG_LEVEL")

	if v := os.Getenv("MEETINGMATE_SCOPES"); v != "" {
		c.Scopes = splitList(v)
	}

	if v := os.Getenv("MEETINGMATE_CHARM_AUTO_SYNC"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MEETINGMATE_CHARM_AUTO_SYNC %q: %w", v, err)
		}
		c.CharmAutoSync = b
	}

	if v := os.Getenv("MEETINGMATE_MAX_EVENTS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MEETINGMATE_MAX_EVENTS %q: %w", v, err)
		}
		c.MaxEvents = n
	}
	if v := os.Getenv("MEETINGMATE_DIRECTORY_PAGE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MEETINGMATE_DIRECTORY_PAGE_SIZE %q: %w", v, err)
		}
		c.DirectoryPageSize = n
	}
	if v := os.Getenv("MEETINGMATE_LOOKUP_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MEETINGMATE_LOOKUP_CONCURRENCY %q: %w", v, err)
		}
		c.LookupConcurrency = n
	}
	if v := os.Getenv("MEETINGMATE_DIRECTORY_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MEETINGMATE_DIRECTORY_CACHE_TTL %q: %w", v, err)
		}
		c.DirectoryCacheTTL = d
	}

	return nil
}

// Validate checks settings that do not depend on which command runs.
func (c *Config) Validate() error {
	switch c.TokenStore {
	case StoreFile, StoreSQLite, StoreCharm:
	default:
		return fmt.Errorf("unknown token store %q (want file, sqlite or charm)", c.TokenStore)
	}
	if c.MaxEvents <= 0 {
		return errors.New("max_events must be positive")
	}
	if c.DirectoryPageSize <= 0 {
		return errors.New("directory_page_size must be positive")
	}
	if c.LookupConcurrency <= 0 {
		return errors.New("lookup_concurrency must be positive")
	}
	if c.DirectoryCacheTTL < 0 {
		return errors.New("directory_cache_ttl must not be negative")
	}
	return nil
}

// RequireOAuth reports whether the OAuth client credentials are present.
func (c *Config) RequireOAuth() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return errors.New("google OAuth credentials not configured. Set CLIENT_ID and CLIENT_SECRET environment variables")
	}
	return nil
}

func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
			return
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
