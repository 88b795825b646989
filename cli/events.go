// ABOUTME: Event listing and reminder sending commands
// ABOUTME: Renders events and send reports with lipgloss styles
package cli

import (
	"fmt"
	"io"

	"github.com/harperreed/meetingmate/models"
	"github.com/harperreed/meetingmate/reminder"
	"github.com/harperreed/meetingmate/tui"
	urfave "github.com/urfave/cli/v2"
)

const startLayout = "Mon Jan 2 15:04 MST"

func eventsCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "events",
		Usage: "List upcoming events with resolved attendee names",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Only show events whose title contains this text (case-sensitive)",
			},
		},
		Action: func(c *urfave.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			evs, err := rt.pipeline.ListEvents(c.Context, c.String("filter"))
			if err != nil {
				return err
			}
			renderEvents(c.App.Writer, evs)
			return nil
		},
	}
}

func remindCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "remind",
		Usage: "Send reminders for every upcoming event matching a filter",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Only remind for events whose title contains this text (case-sensitive)",
			},
			&urfave.BoolFlag{
				Name:  "force",
				Usage: "Send even to attendees already reminded for the same occurrence",
			},
			&urfave.BoolFlag{
				Name:  "dry-run",
				Usage: "Show who would be emailed without sending",
			},
		},
		Action: func(c *urfave.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			opts := reminder.Options{Force: c.Bool("force"), DryRun: c.Bool("dry-run")}
			batch, err := rt.pipeline.RemindMatching(c.Context, c.String("filter"), opts)
			if batch != nil {
				renderBatch(c.App.Writer, batch)
			}
			return err
		},
	}
}

func renderEvents(w io.Writer, evs []models.Event) {
	if len(evs) == 0 {
		_, _ = fmt.Fprintln(w, labelStyle.Render("No upcoming events found."))
		return
	}

	for _, e := range evs {
		start := "time to be confirmed"
		if !e.Start.IsZero() {
			start = e.Start.Local().Format(startLayout)
		}
		_, _ = fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(e.Summary), labelStyle.Render(start))
		for _, a := range e.Attendees {
			line := a.Email
			if a.Name != "" {
				line = fmt.Sprintf("%s <%s>", a.Name, a.Email)
			}
			if a.Organizer {
				line = organizerStyle.Render(line + " (organizer)")
			}
			_, _ = fmt.Fprintf(w, "    %s\n", line)
		}
	}
	_, _ = fmt.Fprintf(w, "\n%d event(s)\n", len(evs))
}

func renderBatch(w io.Writer, batch *models.BatchReport) {
	for _, report := range batch.Reports {
		_, _ = fmt.Fprintln(w, titleStyle.Render(report.Summary))
		for _, r := range report.Results {
			_, _ = fmt.Fprintf(w, "    %s %s\n", statusMark(r.Status), r.Email)
			if r.Error != "" {
				_, _ = fmt.Fprintf(w, "      %s\n", errorStyle.Render(r.Error))
			}
		}
	}

	summary := fmt.Sprintf("%d of %d event(s) completed", batch.Completed, batch.Total)
	if batch.Completed == batch.Total {
		_, _ = fmt.Fprintln(w, okStyle.Render(summary))
	} else {
		_, _ = fmt.Fprintln(w, errorStyle.Render(summary))
	}
}

func statusMark(s models.ReminderStatus) string {
	switch s {
	case models.StatusSent:
		return okStyle.Render("✓ sent   ")
	case models.StatusDryRun:
		return warnStyle.Render("~ dry-run")
	case models.StatusSkipped:
		return labelStyle.Render("- skipped")
	default:
		return errorStyle.Render("✗ failed ")
	}
}

func pickCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "pick",
		Usage: "Interactively choose which upcoming meetings get reminders",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Initial title filter (case-sensitive)",
			},
			&urfave.BoolFlag{
				Name:  "force",
				Usage: "Send even to attendees already reminded for the same occurrence",
			},
			&urfave.BoolFlag{
				Name:  "dry-run",
				Usage: "Show who would be emailed without sending",
			},
		},
		Action: func(c *urfave.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			opts := reminder.Options{Force: c.Bool("force"), DryRun: c.Bool("dry-run")}
			return tui.Run(c.Context, rt.pipeline, c.String("filter"), opts)
		},
	}
}
