package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/navigation"
	"github.com/HendryAvila/formnav/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// JumpTool handles the form_jump MCP tool.
type JumpTool struct {
	sessions Sessions
}

// NewJumpTool creates a JumpTool.
func NewJumpTool(sessions Sessions) *JumpTool {
	return &JumpTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *JumpTool) Definition() mcp.Tool {
	return mcp.NewTool("form_jump",
		mcp.WithDescription(
			"Jump to the screen showing a form index, e.g. `1,0` or `2_1,0` "+
				"(`_k` selects repeat instance k). `START` and `END` are the form "+
				"boundaries. Fails if the index or any of its ancestors is not relevant.",
		),
		sessionIDParam(),
		mcp.WithString("index",
			mcp.Required(),
			mcp.Description("Target form index."),
		),
	)
}

// Handle processes the form_jump tool call.
func (t *JumpTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireSessionID(req)
	if res != nil {
		return res, nil
	}
	raw := req.GetString("index", "")
	if strings.TrimSpace(raw) == "" {
		return mcp.NewToolResultError("index is required, e.g. `1,0`, `START` or `END`."), nil
	}
	target, err := formindex.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid index: %v", err)), nil
	}
	return navigate(t.sessions, id, func(l *session.Live) (navigation.Screen, error) {
		return l.Engine.JumpTo(target)
	})
}
