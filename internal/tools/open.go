package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/formnav/internal/navigation"
	"github.com/HendryAvila/formnav/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// OpenTool handles the form_open MCP tool.
// It starts a session on a form definition, or resumes a saved one.
type OpenTool struct {
	sessions Sessions
}

// NewOpenTool creates an OpenTool.
func NewOpenTool(sessions Sessions) *OpenTool {
	return &OpenTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *OpenTool) Definition() mcp.Tool {
	return mcp.NewTool("form_open",
		mcp.WithDescription(
			"Open a form-entry session. Pass `definition` (path to a YAML form "+
				"definition, relative to the definitions directory) to start a new "+
				"session, or `session_id` to resume a saved one at its last position.",
		),
		mcp.WithString("definition",
			mcp.Description("Form definition file to start a new session on."),
		),
		mcp.WithString("session_id",
			mcp.Description("Existing session to resume. Takes precedence over `definition`."),
		),
	)
}

// Handle processes the form_open tool call.
func (t *OpenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	def := req.GetString("definition", "")

	var live *session.Live
	var err error
	switch {
	case id != "":
		live, err = t.sessions.Resume(id)
	case def != "":
		live, err = t.sessions.Open(def)
	default:
		return mcp.NewToolResultError("Pass `definition` to start a form or `session_id` to resume one."), nil
	}
	if err != nil {
		if res := toolError(err); res != nil {
			return res, nil
		}
		if id == "" {
			return mcp.NewToolResultError(fmt.Sprintf("Could not open the form: %v", err)), nil
		}
		return nil, fmt.Errorf("resuming session %s: %w", id, err)
	}

	return navigate(t.sessions, live.ID, func(l *session.Live) (navigation.Screen, error) {
		return l.Engine.CurrentScreen()
	})
}
