package cli

import (
	"github.com/claude/workoutkit/internal/workout"
	"github.com/spf13/cobra"
)

func newStartCmd(app *App, out *printer) *cobra.Command {
	var title, origin string

	cmd := &cobra.Command{
		Use:   "start <activity>",
		Short: "Start a workout session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			activity, err := parseActivity(args[0])
			if err != nil {
				return err
			}
			if err := app.restore(ctx); err != nil {
				return err
			}
			if origin == "" {
				origin = app.Origin
			}
			if _, err := app.Tracker.Start(ctx, activity, title, origin); err != nil {
				return err
			}
			return out.status(cmd)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Workout title")
	cmd.Flags().StringVar(&origin, "origin", "", "Data origin recorded on the workout (defaults to the app's own)")
	return cmd
}

func newPauseCmd(app *App, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the active session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.restore(ctx); err != nil {
				return err
			}
			if _, ok, err := app.Tracker.Pause(ctx); err != nil {
				return err
			} else if !ok {
				return errNoSession
			}
			return out.status(cmd)
		},
	}
}

func newResumeCmd(app *App, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.restore(ctx); err != nil {
				return err
			}
			if _, ok, err := app.Tracker.Resume(ctx); err != nil {
				return err
			} else if !ok {
				return errNoSession
			}
			return out.status(cmd)
		},
	}
}

func newEndCmd(app *App, out *printer) *cobra.Command {
	var fromSensors bool
	var energy, distance, avgHR, maxHR, minHR float64

	cmd := &cobra.Command{
		Use:   "end",
		Short: "End the active session and save it",
		Long: "End the active session and write the workout to the server. Measurements\n" +
			"come from flags, or with --from-sensors from a record another device\n" +
			"wrote for the same workout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.restore(ctx); err != nil {
				return err
			}

			var (
				rec workout.Record
				ok  bool
				err error
			)
			if fromSensors {
				rec, ok, err = app.Tracker.EndFromSensors(ctx)
			} else {
				var m workout.Metrics
				flags := cmd.Flags()
				setIfChanged := func(name string, v float64, dst **float64) {
					if flags.Changed(name) {
						*dst = &v
					}
				}
				setIfChanged("energy", energy, &m.EnergyBurned)
				setIfChanged("distance", distance, &m.Distance)
				setIfChanged("avg-hr", avgHR, &m.AverageHeartRate)
				setIfChanged("max-hr", maxHR, &m.MaxHeartRate)
				setIfChanged("min-hr", minHR, &m.MinHeartRate)
				rec, ok, err = app.Tracker.End(ctx, m)
			}
			if err != nil {
				return err
			}
			if !ok {
				return errNoSession
			}
			return out.records(cmd, []workout.Record{rec})
		},
	}

	cmd.Flags().BoolVar(&fromSensors, "from-sensors", false, "Take measurements from a matching record on the server")
	cmd.Flags().Float64Var(&energy, "energy", 0, "Energy burned (kcal)")
	cmd.Flags().Float64Var(&distance, "distance", 0, "Distance")
	cmd.Flags().Float64Var(&avgHR, "avg-hr", 0, "Average heart rate (bpm)")
	cmd.Flags().Float64Var(&maxHR, "max-hr", 0, "Maximum heart rate (bpm)")
	cmd.Flags().Float64Var(&minHR, "min-hr", 0, "Minimum heart rate (bpm)")
	for _, name := range []string{"energy", "distance", "avg-hr", "max-hr", "min-hr"} {
		cmd.MarkFlagsMutuallyExclusive("from-sensors", name)
	}
	return cmd
}

func newStatusCmd(app *App, out *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.restore(cmd.Context()); err != nil {
				return err
			}
			return out.status(cmd)
		},
	}
}
