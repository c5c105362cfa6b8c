package mcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/claude/workoutkit/internal/dedup"
	"github.com/claude/workoutkit/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
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
	return time.Time{}, err
}

// parseActivity returns the canonical name of an optional type argument.
func parseActivity(name string) (workout.ActivityType, string, error) {
	if name == "" {
		return workout.ActivityOther, "", nil
	}
	t, ok := workout.ParseActivityType(name)
	if !ok {
		return 0, "", fmt.Errorf("unknown activity type %q", name)
	}
	return t, t.String(), nil
}

// --- Tool definitions ---

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("Query recorded workouts with an optional activity filter. Returns start/end, active and paused seconds, pause count, energy, distance, and heart rate."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("type", mcp.Description("Filter by activity type (e.g. 'Running', 'Cycling', 'StrengthTraining')")),
)

var toolGetWorkoutTotals = mcp.NewTool("get_workout_totals",
	mcp.WithDescription("Per-activity totals over a time range: workout count, active and paused time, energy, and distance."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolFindDuplicates = mcp.NewTool("find_duplicates",
	mcp.WithDescription("Find workouts recorded more than once by different sources (e.g. the app and a watch). Records match when type agrees and start and end times are within the threshold."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("type", mcp.Description("Only consider this activity type")),
	mcp.WithString("app_source", mcp.Description("Data origin written by the app. Defaults to the server setting.")),
	mcp.WithNumber("threshold", mcp.Description("Match tolerance in minutes. Defaults to the server setting.")),
)

// --- Tool handlers ---

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	_, activity, err := parseActivity(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	workouts, err := h.ds.QueryWorkouts(ctx, start, end, activity)
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// activityTotals aggregates one activity type.
type activityTotals struct {
	ActivityType          string  `json:"activity_type"`
	Workouts              int     `json:"workouts"`
	ActiveDurationSeconds float64 `json:"active_duration_seconds"`
	PausedDurationSeconds float64 `json:"paused_duration_seconds"`
	EnergyBurned          float64 `json:"energy_burned"`
	Distance              float64 `json:"distance"`
}

func summarize(records []workout.Record) []activityTotals {
	byType := map[workout.ActivityType]*activityTotals{}
	for _, r := range records {
		t, ok := byType[r.ActivityType]
		if !ok {
			t = &activityTotals{ActivityType: r.ActivityType.String()}
			byType[r.ActivityType] = t
		}
		t.Workouts++
		t.ActiveDurationSeconds += r.ActiveDurationSeconds
		t.PausedDurationSeconds += r.PausedDurationSeconds
		if r.EnergyBurned != nil {
			t.EnergyBurned += *r.EnergyBurned
		}
		if r.Distance != nil {
			t.Distance += *r.Distance
		}
	}

	out := make([]activityTotals, 0, len(byType))
	for _, t := range byType {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Workouts != out[j].Workouts {
			return out[i].Workouts > out[j].Workouts
		}
		return out[i].ActivityType < out[j].ActivityType
	})
	return out
}

func (h *handlers) getWorkoutTotals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	workouts, err := h.ds.QueryWorkouts(ctx, start, end, "")
	if err != nil {
		h.log.Error("mcp get_workout_totals", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summarize(workouts))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) findDuplicates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	activityType, activity, err := parseActivity(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	threshold := int(req.GetFloat("threshold", float64(h.threshold)))
	if threshold < 0 {
		return mcp.NewToolResultError("threshold must not be negative"), nil
	}
	appSource := req.GetString("app_source", h.opts.AppSource)

	workouts, err := h.ds.QueryWorkouts(ctx, start, end, activity)
	if err != nil {
		h.log.Error("mcp find_duplicates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	opts := []dedup.Option{dedup.WithThreshold(threshold)}
	if activity != "" {
		opts = append(opts, dedup.WithActivityType(activityType))
	}
	groups := dedup.FindDuplicates(workouts, appSource, opts...)
	if groups == nil {
		groups = []dedup.DuplicateGroup{}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"app_source":        appSource,
		"threshold_minutes": threshold,
		"groups":            groups,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
