// ABOUTME: Credential status and reminder history commands
// ABOUTME: Read-only views over the credential store and the sent log
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/harperreed/meetingmate/db"
	"github.com/harperreed/meetingmate/pipeline"
	urfave "github.com/urfave/cli/v2"
)

func statusCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "status",
		Usage: "Show whether a credential is stored",
		Action: func(c *urfave.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			status, err := rt.pipeline.Status(c.Context)
			if err != nil {
				return err
			}
			renderStatus(c.App.Writer, rt.cfg.TokenStore, status)
			return nil
		},
	}
}

func historyCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "history",
		Usage: "Show recently sent reminders",
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  "limit",
				Usage: "Maximum entries to show",
				Value: 20,
			},
		},
		Action: func(c *urfave.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			entries, err := rt.sentLog.Recent(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			renderHistory(c.App.Writer, entries)
			return nil
		},
	}
}

func renderStatus(w io.Writer, store string, status *pipeline.AuthStatus) {
	_, _ = fmt.Fprintf(w, "Token store: %s\n", store)
	if !status.Authenticated {
		_, _ = fmt.Fprintln(w, warnStyle.Render("Not authenticated. Run 'meetingmate auth'."))
		return
	}

	_, _ = fmt.Fprintln(w, okStyle.Render("Authenticated"))
	if status.Expiry != nil {
		_, _ = fmt.Fprintf(w, "Access token expires: %s\n", status.Expiry.Local().Format(time.RFC1123))
	}
	if status.HasRefreshToken {
		_, _ = fmt.Fprintln(w, "Refresh token: present")
	} else {
		_, _ = fmt.Fprintln(w, warnStyle.Render("Refresh token: missing (re-run auth after revoking access)"))
	}
}

func renderHistory(w io.Writer, entries []db.ReminderLogEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, labelStyle.Render("No reminders sent yet."))
		return
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
			labelStyle.Render(e.SentAt.Local().Format("2006-01-02 15:04")),
			e.AttendeeEmail,
			titleStyle.Render(e.Summary))
	}
}
