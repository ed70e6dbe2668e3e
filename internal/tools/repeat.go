package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/navigation"
	"github.com/HendryAvila/formnav/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// AddRepeatTool handles the form_add_repeat MCP tool.
type AddRepeatTool struct {
	sessions Sessions
}

// NewAddRepeatTool creates an AddRepeatTool.
func NewAddRepeatTool(sessions Sessions) *AddRepeatTool {
	return &AddRepeatTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *AddRepeatTool) Definition() mcp.Tool {
	return mcp.NewTool("form_add_repeat",
		mcp.WithDescription(
			"Accept an \"Add ...?\" prompt: create a new repeat instance and move to "+
				"its first screen. When the current screen offers several prompts, pass "+
				"`prompt` with the one to accept.",
		),
		sessionIDParam(),
		mcp.WithString("prompt",
			mcp.Description("Index of the prompt to accept, when the screen offers more than one."),
		),
	)
}

// Handle processes the form_add_repeat tool call.
func (t *AddRepeatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireSessionID(req)
	if res != nil {
		return res, nil
	}
	raw := req.GetString("prompt", "")
	if raw == "" {
		return navigate(t.sessions, id, func(l *session.Live) (navigation.Screen, error) {
			return l.Engine.PromptNewRepeat()
		})
	}
	prompt, err := formindex.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid prompt index: %v", err)), nil
	}
	return navigate(t.sessions, id, func(l *session.Live) (navigation.Screen, error) {
		return l.Engine.PromptNewRepeatAt(prompt)
	})
}

// DeleteRepeatTool handles the form_delete_repeat MCP tool.
type DeleteRepeatTool struct {
	sessions Sessions
}

// NewDeleteRepeatTool creates a DeleteRepeatTool.
func NewDeleteRepeatTool(sessions Sessions) *DeleteRepeatTool {
	return &DeleteRepeatTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteRepeatTool) Definition() mcp.Tool {
	return mcp.NewTool("form_delete_repeat",
		mcp.WithDescription(
			"Delete the repeat instance the current screen belongs to, and move to "+
				"the screen that takes its place. When a field-list shows questions of "+
				"several instances, pass `instance` with the one to delete.",
		),
		sessionIDParam(),
		mcp.WithString("instance",
			mcp.Description("Index of the repeat instance to delete, e.g. `4,1_0`."),
		),
	)
}

// Handle processes the form_delete_repeat tool call.
func (t *DeleteRepeatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireSessionID(req)
	if res != nil {
		return res, nil
	}
	raw := req.GetString("instance", "")
	if raw == "" {
		return navigate(t.sessions, id, func(l *session.Live) (navigation.Screen, error) {
			return l.Engine.DeleteCurrentRepeat()
		})
	}
	inst, err := formindex.Parse(raw)
	if err != nil || inst.IsSentinel() {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid instance index %q: pass the index of a repeat instance.", raw)), nil
	}
	return navigate(t.sessions, id, func(l *session.Live) (navigation.Screen, error) {
		return l.Engine.DeleteRepeatAt(inst)
	})
}
