// ABOUTME: Connection settings for the charm credential backend
// ABOUTME: Derived from the application config instead of a separate file
package charm

import (
	"os"

	"github.com/harperreed/meetingmate/config"
)

// DefaultHost is the self-hosted charm server used when none is configured.
const DefaultHost = "charm.2389.dev"

// Config holds charm connection settings.
type Config struct {
	Host string

	// AutoSync pushes after every credential write and pulls on open.
	AutoSync bool
}

// ConfigFrom extracts the charm settings from the application config.
func ConfigFrom(cfg *config.Config) *Config {
	host := cfg.CharmHost
	if host == "" {
		host = DefaultHost
	}
	return &Config{Host: host, AutoSync: cfg.CharmAutoSync}
}

// apply exports the host for the charm libraries, which read it from the environment.
func (c *Config) apply() {
	_ = os.Setenv("CHARM_HOST", c.Host)
}
