// formnav: screen navigation for hierarchical forms, served over MCP.
//
// Usage:
//
//	formnav serve [--config file.yaml]   # Start MCP server (stdio transport)
//	formnav walk <definition.yaml>       # Print the forward screen sequence
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/HendryAvila/formnav/internal/config"
	"github.com/HendryAvila/formnav/internal/formdef"
	"github.com/HendryAvila/formnav/internal/instance"
	"github.com/HendryAvila/formnav/internal/logging"
	"github.com/HendryAvila/formnav/internal/navigation"
	fnserver "github.com/HendryAvila/formnav/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "walk":
		if len(os.Args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: formnav walk <definition.yaml>")
			os.Exit(1)
		}
		if err := walk(os.Stdout, os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("formnav v%s\n", fnserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("FORMNAV_CONFIG"), "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	// stdout carries the MCP transport, so logs go to stderr.
	logger, err := logging.Setup(cfg.LogLevel, "formnav")
	if err != nil {
		return err
	}

	s, cleanup, err := fnserver.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// ServeStdio handles SIGINT/SIGTERM itself.
	return server.ServeStdio(s)
}

// walk prints every screen a user stepping forward from the beginning
// would see, with the definition's initial repeat counts and relevance.
func walk(w io.Writer, path string) error {
	def, err := formdef.Load(path)
	if err != nil {
		return err
	}
	tree := instance.New(def)
	engine := navigation.NewEngine(tree)

	s, err := engine.CurrentScreen()
	for err == nil {
		printScreen(w, tree, s)
		if s.Kind == navigation.ScreenEnd {
			return nil
		}
		s, err = engine.StepForward()
	}
	return err
}

func printScreen(w io.Writer, tree *instance.Tree, s navigation.Screen) {
	switch s.Kind {
	case navigation.ScreenStart, navigation.ScreenEnd:
		fmt.Fprintf(w, "%-10s %s\n", s.Index, s.Kind)
	case navigation.ScreenFieldList:
		fmt.Fprintf(w, "%-10s %s  %s\n", s.Index, s.Kind, tree.Label(s.Index))
		for _, i := range s.Indices() {
			fmt.Fprintf(w, "%-10s   %s\n", "", tree.Label(i))
		}
	default:
		fmt.Fprintf(w, "%-10s %s  %s\n", s.Index, s.Kind, tree.Label(s.Index))
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `formnav v%s - form screen navigation MCP server

Usage:
  formnav serve [--config file]   Start the MCP server (stdio transport)
  formnav walk <definition.yaml>  Print the screens of a form in order
  formnav version                 Print the version

Configuration:
  --config or FORMNAV_CONFIG      YAML config file
  FORMNAV_DATA_DIR                Session and audit storage (default ~/.formnav)
  FORMNAV_LOG_LEVEL               debug, info, warn or error
  FORMNAV_AUDIT_BACKEND           sqlite, csv or none

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "formnav": {
        "command": "formnav",
        "args": ["serve"]
      }
    }
  }
`, fnserver.Version)
}
