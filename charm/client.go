// ABOUTME: Process-wide handle on the charm KV database holding the credential
// ABOUTME: Badger locks its directory, so every caller shares one open handle
package charm

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/harperreed/meetingmate/config"
)

var (
	openMu sync.Mutex
	shared *Client
)

// kvStore is the subset of charm/kv.KV the credential store needs.
type kvStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Sync() error
}

// Client guards access to the KV database and pushes writes when auto-sync is on.
type Client struct {
	mu     sync.Mutex
	kv     kvStore
	config *Config
	local  bool
}

// Open returns the shared client, opening the KV database on first use.
// Later calls return the same client regardless of cfg.
func Open(cfg *Config) (*Client, error) {
	openMu.Lock()
	defer openMu.Unlock()

	if shared != nil {
		return shared, nil
	}

	cfg.apply()
	db, err := kv.OpenWithDefaults(config.AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{kv: db, config: cfg}
	if cfg.AutoSync {
		// Offline is fine; the local copy still works.
		_ = c.Pull()
	}

	shared = c
	return c, nil
}

// Config returns the settings the client was opened with.
func (c *Client) Config() *Config {
	return c.config
}

// ID returns the charm account id of this device.
func (c *Client) ID() (string, error) {
	if c.local {
		return "local", nil
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Pull syncs with the charm server.
func (c *Client) Pull() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

func (c *Client) read(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Get([]byte(key))
}

// write stores value and, with auto-sync, pushes it before releasing the lock.
func (c *Client) write(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set([]byte(key), value); err != nil {
		return err
	}
	c.push()
	return nil
}

func (c *Client) remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete([]byte(key)); err != nil {
		return err
	}
	c.push()
	return nil
}

// push is best effort; a failed push is retried by the next sync.
func (c *Client) push() {
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
}
