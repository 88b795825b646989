// ABOUTME: Command line application definition
// ABOUTME: Registers global flags and every meetingmate subcommand
package cli

import (
	urfave "github.com/urfave/cli/v2"
)

// NewApp builds the meetingmate command line application.
func NewApp(version string) *urfave.App {
	return &urfave.App{
		Name:    "meetingmate",
		Usage:   "Send reminder emails to the attendees of upcoming meetings",
		Version: version,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file",
				EnvVars: []string{"MEETINGMATE_CONFIG"},
			},
			&urfave.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&urfave.StringFlag{
				Name:  "db-path",
				Usage: "Database path (default: ~/.local/share/meetingmate/meetingmate.db)",
			},
		},
		Commands: []*urfave.Command{
			serveCommand(),
			mcpCommand(),
			authCommand(),
			logoutCommand(),
			statusCommand(),
			eventsCommand(),
			remindCommand(),
			pickCommand(),
			historyCommand(),
			charmCommand(),
		},
	}
}
