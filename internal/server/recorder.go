package server

import (
	"context"
	"log/slog"

	"github.com/claude/workoutkit/internal/events"
	"github.com/claude/workoutkit/internal/observability"
	"github.com/claude/workoutkit/internal/workout"
)

// recorder stores workouts and announces the ones that were new. Every write
// path (direct POST and both ingest providers) goes through it.
type recorder struct {
	store     Store
	publisher events.Publisher
	log       *slog.Logger
}

func (r *recorder) InsertWorkout(ctx context.Context, rec workout.Record) (bool, error) {
	inserted, err := r.store.InsertWorkout(ctx, rec)
	if err != nil || !inserted {
		return inserted, err
	}

	observability.RecordWorkout(rec.ActivityType.String(), rec.DataOrigin)
	if err := r.publisher.WorkoutRecorded(ctx, rec); err != nil {
		// The row is already committed; a lost event must not fail the write.
		r.log.Warn("publishing workout event failed", "id", rec.ID, "error", err)
	}
	return true, nil
}
