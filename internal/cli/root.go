// Package cli implements workoutctl, the command-line workout tracker. The
// active session lives in a local preference store; finished workouts and
// duplicate cleanup go through a workoutkit server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/workoutkit/internal/client"
	"github.com/claude/workoutkit/internal/dedup"
	"github.com/claude/workoutkit/internal/haetcp"
	"github.com/claude/workoutkit/internal/ingest"
	"github.com/claude/workoutkit/internal/models"
	"github.com/claude/workoutkit/internal/tracker"
	"github.com/claude/workoutkit/internal/workout"
	"github.com/spf13/cobra"
)

// DefaultOrigin is the data origin stamped on sessions started here.
const DefaultOrigin = "workoutkit"

var errNoSession = errors.New("no active workout session")

// Remote is the server API used by the history and cleanup commands.
// *client.Client implements it.
type Remote interface {
	QueryWorkouts(ctx context.Context, start, end time.Time, activity string) ([]workout.Record, error)
	FindDuplicates(ctx context.Context, q client.DuplicateQuery) (*client.Duplicates, error)
	Resolve(ctx context.Context, q client.DuplicateQuery, pref dedup.Preference, dryRun bool) (*client.Resolution, error)
	SendHAEPayload(ctx context.Context, payload models.HAEPayload, origin string) (*ingest.Result, error)
}

var _ Remote = (*client.Client)(nil)

// WorkoutSource fetches workouts in windows. *haetcp.Client implements it.
type WorkoutSource interface {
	Fetch(ctx context.Context, start, end time.Time, chunk time.Duration, fn func(haetcp.Chunk) error) (int, error)
}

var _ WorkoutSource = (*haetcp.Client)(nil)

// App holds the dependencies shared by all commands.
type App struct {
	Tracker *tracker.Tracker
	Remote  Remote

	// Origin is the default data origin for new sessions.
	Origin string

	// DialHAE connects to a Health Auto Export app for sync.
	DialHAE func(host string, port int) WorkoutSource

	// IsTerminal reports whether stdout is a terminal. Output is JSON otherwise.
	IsTerminal func() bool

	restored bool
}

// restore loads the persisted session once per process.
func (a *App) restore(ctx context.Context) error {
	if a.restored {
		return nil
	}
	if _, _, err := a.Tracker.Restore(ctx); err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	a.restored = true
	return nil
}

// NewRootCmd creates the top-level "workoutctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var asJSON bool

	root := &cobra.Command{
		Use:           "workoutctl",
		Short:         "Track workouts and reconcile duplicates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON even on a terminal")

	out := &printer{app: app, json: &asJSON}

	root.AddCommand(
		newStartCmd(app, out),
		newPauseCmd(app, out),
		newResumeCmd(app, out),
		newEndCmd(app, out),
		newStatusCmd(app, out),
		newListCmd(app, out),
		newDuplicatesCmd(app, out),
		newResolveCmd(app, out),
		newImportCmd(app, out),
		newSyncCmd(app, out),
	)

	return root
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want RFC 3339 or YYYY-MM-DD)", s)
}

// timeRange parses --start/--end, defaulting to the last 7 days.
func timeRange(startStr, endStr string) (time.Time, time.Time, error) {
	end := time.Now()
	if endStr != "" {
		t, err := parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	start := end.AddDate(0, 0, -7)
	if startStr != "" {
		t, err := parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end is before --start")
	}
	return start, end, nil
}

func parseActivity(name string) (workout.ActivityType, error) {
	t, ok := workout.ParseActivityType(name)
	if !ok {
		return 0, fmt.Errorf("unknown activity type %q (known: %v)", name, workout.ActivityTypes())
	}
	return t, nil
}
