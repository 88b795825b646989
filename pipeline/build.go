// ABOUTME: Assembles an Orchestrator from process configuration
// ABOUTME: Shared by the HTTP server, MCP server, and CLI commands
package pipeline

import (
	"github.com/charmbracelet/log"
	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/config"
	"github.com/harperreed/meetingmate/directory"
	"github.com/harperreed/meetingmate/events"
	"github.com/harperreed/meetingmate/reminder"
)

// Build wires every component. sentLog may be nil to disable duplicate suppression.
func Build(cfg *config.Config, store auth.CredentialStore, sentLog reminder.SentLog, logger *log.Logger, opts ...auth.Option) (*Orchestrator, error) {
	resolver, err := directory.NewResolver(cfg.DirectoryPageSize, cfg.DirectoryCacheTTL, logger)
	if err != nil {
		return nil, err
	}

	sessions := auth.NewSessionFactory(cfg, store, logger, opts...)
	retriever := events.NewRetriever(resolver, cfg.CalendarID, cfg.MaxEvents, cfg.LookupConcurrency, logger)
	dispatcher := reminder.NewDispatcher(resolver, sentLog, cfg.Signature, logger)

	return New(sessions, retriever, dispatcher, logger), nil
}
