package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/claude/workoutkit/internal/client"
	"github.com/claude/workoutkit/internal/ingest"
	"github.com/claude/workoutkit/internal/workout"
	"github.com/spf13/cobra"
)

var (
	styleHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#fe8019")).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#928374"))
)

// printer writes tables on a terminal and JSON everywhere else.
type printer struct {
	app  *App
	json *bool
}

func (p *printer) wantJSON() bool {
	return *p.json || p.app.IsTerminal == nil || !p.app.IsTerminal()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) status(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	st, ok := p.app.Tracker.Status()
	if p.wantJSON() {
		if !ok {
			return writeJSON(w, map[string]any{"active": false})
		}
		return writeJSON(w, st)
	}
	if !ok {
		_, err := fmt.Fprintln(w, "No active workout.")
		return err
	}

	title := st.ActivityType.String()
	if st.Title != "" {
		title += " (" + st.Title + ")"
	}
	_, err := fmt.Fprint(w, renderTable(
		[]string{"WORKOUT", "STATE", "STARTED", "ELAPSED", "ACTIVE", "PAUSED", "PAUSES"},
		[][]string{{
			title,
			st.State,
			st.StartTime.Local().Format("15:04"),
			seconds(st.ElapsedSeconds),
			seconds(st.ActiveSeconds),
			seconds(st.PausedSeconds),
			fmt.Sprint(st.PauseCount),
		}},
	))
	return err
}

func (p *printer) records(cmd *cobra.Command, records []workout.Record) error {
	w := cmd.OutOrStdout()
	if p.wantJSON() {
		if records == nil {
			records = []workout.Record{}
		}
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No workouts.")
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.StartTime.Local().Format("2006-01-02 15:04"),
			r.ActivityType.String(),
			r.DataOrigin,
			seconds(r.ActiveDurationSeconds),
			seconds(r.PausedDurationSeconds),
			optional(r.EnergyBurned, "%.0f"),
			optional(r.AverageHeartRate, "%.0f"),
			r.ID,
		})
	}
	_, err := fmt.Fprint(w, renderTable(
		[]string{"START", "TYPE", "ORIGIN", "ACTIVE", "PAUSED", "KCAL", "AVG HR", "ID"},
		rows,
	))
	return err
}

func (p *printer) groups(cmd *cobra.Command, found *client.Duplicates) error {
	w := cmd.OutOrStdout()
	if p.wantJSON() {
		return writeJSON(w, found)
	}
	if len(found.Groups) == 0 {
		_, err := fmt.Fprintf(w, "No duplicates within %d min.\n", found.ThresholdMinutes)
		return err
	}

	var rows [][]string
	for i, g := range found.Groups {
		startDiff, endDiff := "-", "-"
		if d, ok := g.StartTimeDifferenceMinutes(); ok {
			startDiff = fmt.Sprintf("%.1f", d)
		}
		if d, ok := g.EndTimeDifferenceMinutes(); ok {
			endDiff = fmt.Sprintf("%.1f", d)
		}
		for j, r := range g.Workouts {
			group := ""
			if j == 0 {
				group = fmt.Sprint(i + 1)
			}
			side := "external"
			if r.DataOrigin == g.AppSource {
				side = "app"
			}
			row := []string{group, side, r.DataOrigin, r.ActivityType.String(),
				r.StartTime.Local().Format("2006-01-02 15:04"), r.ID, "", ""}
			if j == 0 {
				row[6], row[7] = startDiff, endDiff
			}
			rows = append(rows, row)
		}
	}
	_, err := fmt.Fprint(w, renderTable(
		[]string{"GROUP", "SIDE", "ORIGIN", "TYPE", "START", "ID", "ΔSTART", "ΔEND"},
		rows,
	))
	return err
}

func (p *printer) resolution(cmd *cobra.Command, res *client.Resolution) error {
	w := cmd.OutOrStdout()
	if p.wantJSON() {
		return writeJSON(w, res)
	}
	verb := "Deleted"
	count := res.Deleted
	if res.DryRun {
		verb = "Would delete"
		count = int64(len(res.Plan.Discard))
	}
	_, err := fmt.Fprintf(w, "%s %d workout(s), kept %d, skipped %d group(s) without an app record (prefer %s).\n",
		verb, count, len(res.Plan.Keep), res.Plan.Skipped, res.Preference)
	return err
}

func (p *printer) ingest(cmd *cobra.Command, res *ingest.Result) error {
	w := cmd.OutOrStdout()
	if p.wantJSON() {
		return writeJSON(w, res)
	}
	_, err := fmt.Fprintf(w, "Received %d, inserted %d, skipped %d, rejected %d.\n",
		res.WorkoutsReceived, res.WorkoutsInserted, res.WorkoutsSkipped, res.WorkoutsRejected)
	if err == nil && res.Message != "" {
		_, err = fmt.Fprintln(w, res.Message)
	}
	return err
}

func seconds(s float64) string {
	return time.Duration(s * float64(time.Second)).Round(time.Second).String()
}

func optional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

// renderTable aligns columns by visible width and styles the header row.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	const colGap = 2
	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			text := cell
			if style != nil {
				text = style.Render(cell)
			}
			b.WriteString(text)
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &styleHeader)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	writeRow(sep, &styleDim)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}
