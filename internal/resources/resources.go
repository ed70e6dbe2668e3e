// Package resources implements MCP resource handlers.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (formnav://...).
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/formnav/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// ActiveSessionsURI is the address of the live-session listing.
const ActiveSessionsURI = "formnav://sessions/active"

// SessionLister reports live sessions.
type SessionLister interface {
	Active() []session.Summary
}

// Handler manages resource endpoints.
type Handler struct {
	sessions SessionLister
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(sessions SessionLister) *Handler {
	return &Handler{sessions: sessions}
}

// ActiveSessionsResource returns the MCP resource definition.
func (h *Handler) ActiveSessionsResource() mcp.Resource {
	return mcp.NewResource(
		ActiveSessionsURI,
		"Active form sessions",
		mcp.WithResourceDescription("Open form-entry sessions with their form and current position"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleActiveSessions returns the live sessions as JSON.
func (h *Handler) HandleActiveSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(h.sessions.Active(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling sessions: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
