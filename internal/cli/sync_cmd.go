package cli

import (
	"fmt"
	"time"

	"github.com/claude/workoutkit/internal/haetcp"
	"github.com/claude/workoutkit/internal/ingest"
	"github.com/spf13/cobra"
)

func newSyncCmd(app *App, out *printer) *cobra.Command {
	var rf rangeFlags
	var host, origin string
	var port, chunkDays int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy workouts from the Health Auto Export app to the server",
		Long: "Query the Health Auto Export app's TCP server for workouts in the window\n" +
			"and upload them. Run duplicates afterwards to find the ones this app\n" +
			"also recorded.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.DialHAE == nil {
				return fmt.Errorf("sync is not available")
			}
			if chunkDays <= 0 {
				return fmt.Errorf("--chunk-days must be positive")
			}
			q, err := rf.query()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			total := &ingest.Result{}
			skipped, err := app.DialHAE(host, port).Fetch(ctx, q.Start, q.End, time.Duration(chunkDays)*24*time.Hour,
				func(c haetcp.Chunk) error {
					if dryRun {
						total.WorkoutsReceived += len(c.Payload.Data.Workouts)
						return nil
					}
					res, err := app.Remote.SendHAEPayload(ctx, *c.Payload, origin)
					if err != nil {
						return fmt.Errorf("uploading %s to %s: %w",
							c.Start.Format("2006-01-02"), c.End.Format("2006-01-02"), err)
					}
					mergeResult(total, res)
					return nil
				})
			if err != nil {
				return err
			}
			if skipped > 0 {
				total.Message = fmt.Sprintf("%d window(s) could not be read from the app.", skipped)
			}
			return out.ingest(cmd, total)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&host, "hae-host", "", "Host running Health Auto Export")
	cmd.Flags().IntVar(&port, "hae-port", haetcp.DefaultPort, "Health Auto Export TCP port")
	cmd.Flags().IntVar(&chunkDays, "chunk-days", 7, "Days per request")
	cmd.Flags().StringVar(&origin, "origin", "", "Data origin for the synced workouts (default: Health Auto Export)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Count workouts without uploading")
	_ = cmd.MarkFlagRequired("hae-host")
	return cmd
}

func mergeResult(dst, src *ingest.Result) {
	dst.WorkoutsReceived += src.WorkoutsReceived
	dst.WorkoutsInserted += src.WorkoutsInserted
	dst.WorkoutsSkipped += src.WorkoutsSkipped
	dst.WorkoutsRejected += src.WorkoutsRejected
	for _, n := range src.UnknownTypes {
		dst.NoteUnknownType(n)
	}
}
