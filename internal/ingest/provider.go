// Package ingest converts vendor workout exports into workout records.
package ingest

import (
	"context"

	"github.com/claude/workoutkit/internal/workout"
)

// Writer stores records. Returns true if inserted, false if the ID already existed.
type Writer interface {
	InsertWorkout(ctx context.Context, rec workout.Record) (bool, error)
}

// Result holds the outcome of an ingest operation.
type Result struct {
	WorkoutsReceived int      `json:"workouts_received"`
	WorkoutsInserted int      `json:"workouts_inserted"`
	WorkoutsSkipped  int      `json:"workouts_skipped"`
	WorkoutsRejected int      `json:"workouts_rejected"`
	UnknownTypes     []string `json:"unknown_types,omitempty"`

	Message string `json:"message,omitempty"`
}

// Store writes rec and updates the counters.
func (r *Result) Store(ctx context.Context, w Writer, rec workout.Record) error {
	inserted, err := w.InsertWorkout(ctx, rec)
	if err != nil {
		return err
	}
	if inserted {
		r.WorkoutsInserted++
	} else {
		r.WorkoutsSkipped++
	}
	return nil
}

// NoteUnknownType remembers a vendor activity name the tables did not know.
func (r *Result) NoteUnknownType(name string) {
	for _, n := range r.UnknownTypes {
		if n == name {
			return
		}
	}
	r.UnknownTypes = append(r.UnknownTypes, name)
}
