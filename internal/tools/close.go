package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// CloseTool handles the form_close MCP tool.
type CloseTool struct {
	sessions Sessions
}

// NewCloseTool creates a CloseTool.
func NewCloseTool(sessions Sessions) *CloseTool {
	return &CloseTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *CloseTool) Definition() mcp.Tool {
	return mcp.NewTool("form_close",
		mcp.WithDescription("Close a form-entry session. A closed session cannot be resumed."),
		sessionIDParam(),
	)
}

// Handle processes the form_close tool call.
func (t *CloseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireSessionID(req)
	if res != nil {
		return res, nil
	}
	if err := t.sessions.Close(id); err != nil {
		if res := toolError(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("closing session %s: %w", id, err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session `%s` closed.", id)), nil
}
