// ABOUTME: Charm link and status reporting for the credential backend
// ABOUTME: Charm authenticates with SSH keys, so linking is just a first sync
package charm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/harperreed/meetingmate/auth"
)

// Link syncs this device with the charm server and reports the account id.
func Link(w io.Writer, cfg *Config) error {
	c, err := Open(cfg)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Linking to %s...\n", c.Config().Host)
	if err := c.Pull(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	if id, err := c.ID(); err != nil {
		_, _ = fmt.Fprintln(w, "✓ Device linked (account id unavailable)")
	} else {
		_, _ = fmt.Fprintf(w, "✓ Linked to account: %s\n", id)
	}
	_, _ = fmt.Fprintf(w, "✓ Auto-sync: %v\n", c.Config().AutoSync)
	return nil
}

// Status prints the charm server, account, and whether a credential is synced.
func Status(ctx context.Context, w io.Writer, cfg *Config) error {
	c, err := Open(cfg)
	if err != nil {
		return err
	}
	return writeStatus(ctx, w, c)
}

func writeStatus(ctx context.Context, w io.Writer, c *Client) error {
	_, _ = fmt.Fprintf(w, "Server:     %s\n", c.Config().Host)
	_, _ = fmt.Fprintf(w, "Auto-sync:  %v\n", c.Config().AutoSync)

	if id, err := c.ID(); err != nil {
		_, _ = fmt.Fprintln(w, "Account:    not linked")
	} else {
		_, _ = fmt.Fprintf(w, "Account:    %s\n", id)
	}

	cred, err := NewStore(c).Load(ctx)
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		_, _ = fmt.Fprintln(w, "Credential: none")
	case err != nil:
		return err
	default:
		_, _ = fmt.Fprintf(w, "Credential: present (expires %s)\n", cred.Expiry.Format("2006-01-02 15:04"))
	}
	return nil
}
