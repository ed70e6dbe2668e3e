// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the stores, picks the audit
// backend from config and injects the session manager into the tools,
// prompts and resources. No navigation logic lives here.
package server

import (
	"fmt"
	"log/slog"

	"github.com/HendryAvila/formnav/internal/audit"
	"github.com/HendryAvila/formnav/internal/config"
	"github.com/HendryAvila/formnav/internal/prompts"
	"github.com/HendryAvila/formnav/internal/resources"
	"github.com/HendryAvila/formnav/internal/session"
	"github.com/HendryAvila/formnav/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the session store and the audit
// sink and must be called on shutdown (typically via defer). It is
// always non-nil.
func New(cfg config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	// --- Create shared dependencies ---

	store, err := session.NewStore(cfg.SessionDBPath())
	if err != nil {
		return nil, noop, fmt.Errorf("opening session store: %w", err)
	}

	sink, err := NewAuditSink(cfg)
	if err != nil {
		store.Close()
		return nil, noop, fmt.Errorf("opening audit sink: %w", err)
	}

	cleanup := func() {
		if err := sink.Close(); err != nil {
			logger.Warn("audit sink close failed", "error", err)
		}
		if err := store.Close(); err != nil {
			logger.Warn("session store close failed", "error", err)
		}
	}

	manager := session.NewManager(store, sink, cfg.DefinitionsDir, logger)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"formnav",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register session tools ---

	openTool := tools.NewOpenTool(manager)
	s.AddTool(openTool.Definition(), openTool.Handle)

	closeTool := tools.NewCloseTool(manager)
	s.AddTool(closeTool.Definition(), closeTool.Handle)

	// --- Register navigation tools ---

	for _, step := range []*tools.StepTool{
		tools.NewScreenTool(manager),
		tools.NewNextTool(manager),
		tools.NewPreviousTool(manager),
	} {
		s.AddTool(step.Definition(), step.Handle)
	}

	jumpTool := tools.NewJumpTool(manager)
	s.AddTool(jumpTool.Definition(), jumpTool.Handle)

	addRepeatTool := tools.NewAddRepeatTool(manager)
	s.AddTool(addRepeatTool.Definition(), addRepeatTool.Handle)

	deleteRepeatTool := tools.NewDeleteRepeatTool(manager)
	s.AddTool(deleteRepeatTool.Definition(), deleteRepeatTool.Handle)

	relevanceTool := tools.NewRelevanceTool(manager)
	s.AddTool(relevanceTool.Definition(), relevanceTool.Handle)

	// --- Register prompts ---

	walkthrough := prompts.NewWalkthroughPrompt()
	s.AddPrompt(walkthrough.Definition(), walkthrough.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(manager)
	s.AddResource(resourceHandler.ActiveSessionsResource(), resourceHandler.HandleActiveSessions)

	logger.Info("server ready",
		"data_dir", cfg.DataDir,
		"definitions_dir", cfg.DefinitionsDir,
		"audit_backend", cfg.Audit.Backend,
	)
	return s, cleanup, nil
}

// NewAuditSink opens the audit backend selected by cfg.
func NewAuditSink(cfg config.Config) (audit.Sink, error) {
	switch cfg.Audit.Backend {
	case config.AuditSQLite:
		sink, err := audit.NewSQLiteSink(cfg.AuditDBPath())
		if err != nil {
			return nil, err
		}
		return sink, nil
	case config.AuditCSV:
		sink, err := audit.NewCSVSink(cfg.AuditCSVPath())
		if err != nil {
			return nil, err
		}
		return sink, nil
	case config.AuditNone:
		return audit.NopSink{}, nil
	}
	return nil, fmt.Errorf("unknown audit backend %q", cfg.Audit.Backend)
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to drive a form-entry session.
func serverInstructions() string {
	return `You have access to formnav, a form-entry navigation server.

A form is a tree of questions, groups and repeats. formnav turns it into
a sequence of screens and keeps track of where the user is.

## Screens
- question: a single question.
- field-list: several questions shown together. Present them all at once.
- new-repeat-prompt: "Add <thing>?". Ask the user; call form_add_repeat
  to add one, or form_next to move on.
- start / end: the boundaries of the form.

## Workflow
1. form_open with definition=<file.yaml> starts a session. Keep the
   session_id; pass it to every other tool.
2. form_next and form_previous move one screen. Irrelevant questions are
   skipped automatically.
3. form_jump moves to the screen showing a given index (e.g. "2_1,0").
4. form_add_repeat accepts an "Add ...?" prompt. When a field-list offers
   several prompts, pass the prompt index.
5. form_delete_repeat removes the repeat instance the user is in. On a
   field-list showing several instances, pass the instance index.
6. form_set_relevance marks an element as (not) applicable after an
   answer changes which questions apply.
7. form_close ends the session.

Sessions survive restarts: form_open with session_id resumes at the saved
position. Use the form-walkthrough prompt for a guided session.`
}
