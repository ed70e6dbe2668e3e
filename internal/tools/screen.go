package tools

import (
	"context"

	"github.com/HendryAvila/formnav/internal/navigation"
	"github.com/HendryAvila/formnav/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// StepTool handles the single-session navigation tools that take no
// argument besides the session: form_screen, form_next and
// form_previous.
type StepTool struct {
	sessions    Sessions
	name        string
	description string
	op          func(e *navigation.Engine) (navigation.Screen, error)
}

// NewScreenTool shows the current screen without moving.
func NewScreenTool(sessions Sessions) *StepTool {
	return &StepTool{
		sessions: sessions,
		name:     "form_screen",
		description: "Show the current screen of a session: the question, the group of " +
			"questions shown together, or the prompt to add a repeat.",
		op: (*navigation.Engine).CurrentScreen,
	}
}

// NewNextTool moves one screen forward.
func NewNextTool(sessions Sessions) *StepTool {
	return &StepTool{
		sessions: sessions,
		name:     "form_next",
		description: "Move to the next screen. Irrelevant questions are skipped and a " +
			"group shown as one screen is left in a single step. At the end of the form " +
			"this stays on the end screen.",
		op: (*navigation.Engine).StepForward,
	}
}

// NewPreviousTool moves one screen back.
func NewPreviousTool(sessions Sessions) *StepTool {
	return &StepTool{
		sessions: sessions,
		name:     "form_previous",
		description: "Move to the previous screen. At the beginning of the form this " +
			"stays on the start screen.",
		op: (*navigation.Engine).StepBackward,
	}
}

// Definition returns the MCP tool definition for registration.
func (t *StepTool) Definition() mcp.Tool {
	return mcp.NewTool(t.name,
		mcp.WithDescription(t.description),
		sessionIDParam(),
	)
}

// Handle processes the tool call.
func (t *StepTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireSessionID(req)
	if res != nil {
		return res, nil
	}
	return navigate(t.sessions, id, func(l *session.Live) (navigation.Screen, error) {
		return t.op(l.Engine)
	})
}
