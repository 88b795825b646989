// ABOUTME: Entry point for the meetingmate CLI, HTTP API, and MCP server
// ABOUTME: Hands os.Args to the urfave/cli application
package main

import (
	"fmt"
	"os"

	"github.com/harperreed/meetingmate/cli"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp(version)
	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
