// ABOUTME: Charm credential backend commands
// ABOUTME: Links this device to the charm server and reports sync state
package cli

import (
	"github.com/harperreed/meetingmate/charm"
	urfave "github.com/urfave/cli/v2"
)

func charmCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "charm",
		Usage: "Manage the charm credential backend",
		Subcommands: []*urfave.Command{
			{
				Name:  "link",
				Usage: "Link this device to the charm server",
				Action: func(c *urfave.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return charm.Link(c.App.Writer, charm.ConfigFrom(cfg))
				},
			},
			{
				Name:  "status",
				Usage: "Show charm server and synced credential state",
				Action: func(c *urfave.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return charm.Status(c.Context, c.App.Writer, charm.ConfigFrom(cfg))
				},
			},
		},
	}
}
