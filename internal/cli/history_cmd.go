package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/claude/workoutkit/internal/client"
	"github.com/claude/workoutkit/internal/dedup"
	"github.com/claude/workoutkit/internal/models"
	"github.com/spf13/cobra"
)

// rangeFlags are the window and filter flags shared by history commands.
type rangeFlags struct {
	start, end, activity string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "Start of the window (RFC 3339 or YYYY-MM-DD, default 7 days ago)")
	cmd.Flags().StringVar(&f.end, "end", "", "End of the window (default now)")
	cmd.Flags().StringVar(&f.activity, "type", "", "Only this activity type")
}

func (f *rangeFlags) query() (client.DuplicateQuery, error) {
	start, end, err := timeRange(f.start, f.end)
	if err != nil {
		return client.DuplicateQuery{}, err
	}
	q := client.DuplicateQuery{Start: start, End: end}
	if f.activity != "" {
		t, err := parseActivity(f.activity)
		if err != nil {
			return client.DuplicateQuery{}, err
		}
		q.ActivityType = t.String()
	}
	return q, nil
}

func newListCmd(app *App, out *printer) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded workouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := rf.query()
			if err != nil {
				return err
			}
			records, err := app.Remote.QueryWorkouts(cmd.Context(), q.Start, q.End, q.ActivityType)
			if err != nil {
				return err
			}
			return out.records(cmd, records)
		},
	}
	rf.register(cmd)
	return cmd
}

func newDuplicatesCmd(app *App, out *printer) *cobra.Command {
	var rf rangeFlags
	var appSource string
	var threshold int

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Find workouts recorded by more than one source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := rf.query()
			if err != nil {
				return err
			}
			q.AppSource = appSource
			if cmd.Flags().Changed("threshold") {
				q.ThresholdMinutes = &threshold
			}

			found, err := app.Remote.FindDuplicates(cmd.Context(), q)
			if err != nil {
				return err
			}
			return out.groups(cmd, found)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&appSource, "app-source", "", "Data origin written by the app (default: server setting)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Match tolerance in minutes, 0 for exact (default: server setting)")
	return cmd
}

func newResolveCmd(app *App, out *printer) *cobra.Command {
	var rf rangeFlags
	var appSource, prefer string
	var threshold int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Delete the losing side of each duplicate group",
		Long: "Delete duplicates on the server. With --prefer external (the default) the\n" +
			"app's own record is deleted and the device records are kept; --prefer app\n" +
			"does the opposite. Groups without an app record are left alone.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pref, err := dedup.ParsePreference(prefer)
			if err != nil {
				return err
			}
			q, err := rf.query()
			if err != nil {
				return err
			}
			q.AppSource = appSource
			if cmd.Flags().Changed("threshold") {
				q.ThresholdMinutes = &threshold
			}

			res, err := app.Remote.Resolve(cmd.Context(), q, pref, dryRun)
			if err != nil {
				return err
			}
			return out.resolution(cmd, res)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&appSource, "app-source", "", "Data origin written by the app (default: server setting)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Match tolerance in minutes, 0 for exact (default: server setting)")
	cmd.Flags().StringVar(&prefer, "prefer", "external", "Which side to keep: external or app")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the plan without deleting anything")
	return cmd
}

func newImportCmd(app *App, out *printer) *cobra.Command {
	var origin string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Upload a Health Auto Export JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading export: %w", err)
			}
			var payload models.HAEPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("parsing export %s: %w", args[0], err)
			}

			res, err := app.Remote.SendHAEPayload(cmd.Context(), payload, origin)
			if err != nil {
				return err
			}
			return out.ingest(cmd, res)
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "Data origin for the imported workouts (default: Health Auto Export)")
	return cmd
}
