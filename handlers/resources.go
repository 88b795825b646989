// ABOUTME: MCP resource handlers exposing credential status and the sent-reminder log
// ABOUTME: Serves meetingmate://status and meetingmate://reminders as JSON
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/meetingmate/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	StatusURI    = "meetingmate://status"
	RemindersURI = "meetingmate://reminders"
)

// RecentReminders lists the newest entries of the sent log.
type RecentReminders interface {
	Recent(ctx context.Context, limit int) ([]db.ReminderLogEntry, error)
}

type ResourceHandlers struct {
	pipeline Pipeline
	log      RecentReminders
}

func NewResourceHandlers(p Pipeline, log RecentReminders) *ResourceHandlers {
	return &ResourceHandlers{pipeline: p, log: log}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "meetingmate://") {
		return nil, fmt.Errorf("invalid URI scheme: expected meetingmate://")
	}

	switch uri {
	case StatusURI:
		status, err := h.pipeline.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read status: %w", err)
		}
		return jsonResource(uri, status)

	case RemindersURI:
		if h.log == nil {
			return nil, fmt.Errorf("reminder log is not enabled")
		}
		entries, err := h.log.Recent(ctx, 50)
		if err != nil {
			return nil, fmt.Errorf("failed to read reminder log: %w", err)
		}
		return jsonResource(uri, entries)

	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
