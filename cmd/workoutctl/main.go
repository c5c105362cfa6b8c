package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/workoutkit/internal/cli"
	"github.com/claude/workoutkit/internal/client"
	"github.com/claude/workoutkit/internal/haetcp"
	"github.com/claude/workoutkit/internal/prefs"
	"github.com/claude/workoutkit/internal/tracker"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Session state: env var or default ~/.workoutctl
	stateDir := os.Getenv("WORKOUTCTL_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		stateDir = filepath.Join(home, ".workoutctl")
	}

	serverURL := os.Getenv("WORKOUTKIT_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	level := slog.LevelWarn
	if os.Getenv("WORKOUTCTL_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := prefs.OpenSQLiteStore(stateDir)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()

	remote := client.New(serverURL, os.Getenv("WORKOUTKIT_API_KEY"))

	origin := os.Getenv("WORKOUTCTL_ORIGIN")
	if origin == "" {
		origin = cli.DefaultOrigin
	}

	app := &cli.App{
		Tracker: tracker.New(store, remote, log),
		Remote:  remote,
		Origin:  origin,
		DialHAE: func(host string, port int) cli.WorkoutSource {
			return haetcp.New(host, port, log)
		},
		IsTerminal: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
	}

	return cli.NewRootCmd(app).Execute()
}
