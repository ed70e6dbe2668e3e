// Package tools implements the MCP tool handlers that drive form-entry
// sessions.
//
// Each tool is a struct holding its dependencies and exposing
// Definition (for registration) and Handle (mcp-go's CallToolRequest
// signature). Tools depend on the Sessions interface, not on the
// session manager itself.
package tools

import (
	"errors"
	"fmt"

	"github.com/HendryAvila/formnav/internal/formtree"
	"github.com/HendryAvila/formnav/internal/navigation"
	"github.com/HendryAvila/formnav/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// Sessions is what the tools need from the session layer.
type Sessions interface {
	Open(defPath string) (*session.Live, error)
	Resume(id string) (*session.Live, error)
	Do(id string, fn func(l *session.Live) (navigation.Screen, error)) (navigation.Screen, error)
	Close(id string) error
}

var _ Sessions = (*session.Manager)(nil)

func sessionIDParam() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session ID returned by form_open."),
	)
}

func requireSessionID(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	id := req.GetString("session_id", "")
	if id == "" {
		return "", mcp.NewToolResultError("session_id is required. Open a form with `form_open` first.")
	}
	return id, nil
}

// navigate runs op on the session and renders the resulting screen
// while the session is still locked. User-facing failures become tool
// errors; only unexpected failures are returned as Go errors.
func navigate(sessions Sessions, id string, op func(l *session.Live) (navigation.Screen, error)) (*mcp.CallToolResult, error) {
	var text string
	_, err := sessions.Do(id, func(l *session.Live) (navigation.Screen, error) {
		s, err := op(l)
		if err == nil {
			text = renderScreen(l, s)
		}
		return s, err
	})
	if err != nil {
		if res := toolError(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("navigating session %s: %w", id, err)
	}
	return mcp.NewToolResultText(text), nil
}

// toolError maps known failures to tool results, or nil.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, navigation.ErrInconsistentTree):
		return mcp.NewToolResultError(fmt.Sprintf(
			"The form could not be loaded and the session was closed: %v", err))
	case errors.Is(err, session.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf(
			"%v. Open it with `form_open` (pass `session_id` to resume).", err))
	case errors.Is(err, session.ErrClosed):
		return mcp.NewToolResultError(fmt.Sprintf("%v. Start a new one with `form_open`.", err))
	case errors.Is(err, navigation.ErrUnreachableIndex):
		return mcp.NewToolResultError(fmt.Sprintf("Cannot go there: %v", err))
	case errors.Is(err, navigation.ErrNotAtRepeatPrompt):
		return mcp.NewToolResultError(fmt.Sprintf(
			"No repeat can be added here: %v. Navigate to an \"Add ...?\" prompt first.", err))
	case errors.Is(err, navigation.ErrNoEnclosingRepeat):
		return mcp.NewToolResultError(fmt.Sprintf("Nothing to delete: %v", err))
	case errors.Is(err, formtree.ErrNoSuchNode),
		errors.Is(err, formtree.ErrNotRepeat),
		errors.Is(err, formtree.ErrRepeatFull):
		return mcp.NewToolResultError(err.Error())
	}
	return nil
}
