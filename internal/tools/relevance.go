package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/navigation"
	"github.com/HendryAvila/formnav/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// RelevanceTool handles the form_set_relevance MCP tool.
// It stands in for the expression evaluator that would normally decide
// which questions apply after an answer is saved.
type RelevanceTool struct {
	sessions Sessions
}

// NewRelevanceTool creates a RelevanceTool.
func NewRelevanceTool(sessions Sessions) *RelevanceTool {
	return &RelevanceTool{sessions: sessions}
}

// Definition returns the MCP tool definition for registration.
func (t *RelevanceTool) Definition() mcp.Tool {
	return mcp.NewTool("form_set_relevance",
		mcp.WithDescription(
			"Mark a question, group, repeat instance or whole repeat (via its prompt "+
				"index) as relevant or not. Irrelevant elements are skipped by navigation. "+
				"Returns the current screen, which moves forward if it stopped being relevant.",
		),
		sessionIDParam(),
		mcp.WithString("index",
			mcp.Required(),
			mcp.Description("Form index of the element."),
		),
		mcp.WithBoolean("relevant",
			mcp.Required(),
			mcp.Description("Whether the element applies."),
		),
	)
}

// Handle processes the form_set_relevance tool call.
func (t *RelevanceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireSessionID(req)
	if res != nil {
		return res, nil
	}
	target, err := formindex.Parse(req.GetString("index", ""))
	if err != nil || target.IsSentinel() {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid index %q: pass the index of a form element.", req.GetString("index", ""))), nil
	}
	relevant := req.GetBool("relevant", true)

	return navigate(t.sessions, id, func(l *session.Live) (navigation.Screen, error) {
		if err := l.Tree.SetRelevant(target, relevant); err != nil {
			return navigation.Screen{}, err
		}
		return l.Engine.CurrentScreen()
	})
}
