package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/workoutkit/internal/client"
	"github.com/claude/workoutkit/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// workoutkit-mcp serves the MCP tools over stdio for local assistants while
// the data stays on a remote workoutkit server.
func main() {
	serverURL := flag.String("server", os.Getenv("WORKOUTKIT_SERVER_URL"), "workoutkit server URL (e.g. https://workoutkit.tail1234.ts.net)")
	appSource := flag.String("app-source", "workoutkit", "data origin written by the app, used by find_duplicates")
	threshold := flag.Int("threshold", 5, "default duplicate threshold in minutes (0 for exact matches)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("workoutkit-mcp", Version)
		return
	}

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or set WORKOUTKIT_SERVER_URL)\n")
		os.Exit(1)
	}
	if *threshold < 0 {
		fmt.Fprintf(os.Stderr, "Error: -threshold must not be negative\n")
		os.Exit(1)
	}

	ds := client.New(*serverURL, "")
	s := mcp.New(ds, Version, mcp.Options{AppSource: *appSource, ThresholdMinutes: threshold}, log)

	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp stdio server stopped", "error", err)
		os.Exit(1)
	}
}
