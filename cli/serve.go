// ABOUTME: HTTP server and MCP server subcommands
// ABOUTME: Both expose the same pipeline, over chi routes or MCP stdio
package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/meetingmate/handlers"
	"github.com/harperreed/meetingmate/web"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	urfave "github.com/urfave/cli/v2"
)

func serveCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from config, :8080)",
			},
		},
		Action: func(c *urfave.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			addr := rt.cfg.ListenAddr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := web.NewServer(rt.pipeline, rt.cfg.CORSOrigin, rt.cfg.OAuthState, rt.logger)
			return server.ListenAndServe(ctx, addr)
		},
	}
}

func mcpCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "mcp",
		Usage: "Start the MCP server on stdio",
		Action: func(c *urfave.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.logger.Info("Starting meetingmate MCP server")
			server := newMCPServer(rt, c.App.Version)
			return server.Run(c.Context, &mcp.StdioTransport{})
		},
	}
}

func newMCPServer(rt *runtime, version string) *mcp.Server {
	calendarHandlers := handlers.NewCalendarHandlers(rt.pipeline)
	resourceHandlers := handlers.NewResourceHandlers(rt.pipeline, rt.sentLog)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "meetingmate",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "authorization_url",
		Description: "Get the Google consent URL the user must visit to authorize meetingmate",
	}, calendarHandlers.AuthorizationURL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "authenticate",
		Description: "Exchange an authorization code for a stored credential",
	}, calendarHandlers.Authenticate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "auth_status",
		Description: "Report whether a credential is stored and when it expires",
	}, calendarHandlers.AuthStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_events",
		Description: "List upcoming calendar events, optionally filtered by a substring of the title",
	}, calendarHandlers.ListEvents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_reminder",
		Description: "Email a reminder to every non-organizer attendee of one event",
	}, calendarHandlers.SendReminder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_all_reminders",
		Description: "Send reminders for a list of events, stopping at the first failure",
	}, calendarHandlers.SendAllReminders)

	server.AddResource(&mcp.Resource{
		URI:         handlers.StatusURI,
		Name:        "status",
		Description: "Credential status",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         handlers.RemindersURI,
		Name:        "reminders",
		Description: "Recently sent reminders",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	return server
}
