// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to run a sequence of tool calls.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// WalkthroughPrompt handles the form-walkthrough MCP prompt.
// It guides the AI through filling in a form screen by screen.
type WalkthroughPrompt struct{}

// NewWalkthroughPrompt creates a WalkthroughPrompt.
func NewWalkthroughPrompt() *WalkthroughPrompt {
	return &WalkthroughPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *WalkthroughPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("form-walkthrough",
		mcp.WithPromptDescription(
			"Walk through a form one screen at a time, asking me each question "+
				"and handling repeats (like household members) as they come up.",
		),
		mcp.WithArgument("definition",
			mcp.ArgumentDescription("Form definition file to open. Default: household.yaml"),
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Resume this session instead of starting a new one."),
		),
	)
}

// Handle processes the form-walkthrough prompt request.
func (p *WalkthroughPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	definition := "household.yaml"
	sessionID := ""
	if args := req.Params.Arguments; args != nil {
		if d, ok := args["definition"]; ok && d != "" {
			definition = d
		}
		sessionID = args["session_id"]
	}

	open := fmt.Sprintf("Run `form_open` with definition='%s'.", definition)
	description := fmt.Sprintf("Walk through form: %s", definition)
	if sessionID != "" {
		open = fmt.Sprintf("Run `form_open` with session_id='%s' to resume where I left off.", sessionID)
		description = fmt.Sprintf("Resume form session: %s", sessionID)
	}

	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want to fill in a form with your help.\n\n" +
						"Please:\n" +
						"1. " + open + "\n" +
						"2. Show me each screen. Ask every question listed on it together.\n" +
						"3. When a screen asks \"Add ...?\", ask me; call `form_add_repeat` if I say yes, `form_next` if not.\n" +
						"4. If I ask to go back, call `form_previous`. If I want to remove an entry, call `form_delete_repeat`.\n" +
						"5. When an answer means some questions no longer apply, call `form_set_relevance` for them.\n" +
						"6. At the end screen, summarize and call `form_close` when I confirm.",
				),
			},
		},
	}, nil
}
