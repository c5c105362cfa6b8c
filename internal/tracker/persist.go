package tracker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/claude/workoutkit/internal/workout"
)

// Preference keys holding the active session. They are always written and
// removed as a set.
const (
	KeySessionID      = "workout_session_id"
	KeyActivityType   = "workout_session_activity_type"
	KeyTitle          = "workout_session_title"
	KeyStartTime      = "workout_session_start_time"
	KeyDataOrigin     = "workout_session_data_origin"
	KeyState          = "workout_session_state"
	KeyPauseIntervals = "workout_session_pause_intervals"
)

var sessionKeys = []string{
	KeySessionID, KeyActivityType, KeyTitle, KeyStartTime,
	KeyDataOrigin, KeyState, KeyPauseIntervals,
}

func (t *Tracker) save(ctx context.Context, s workout.Session) error {
	values := map[string]string{
		KeySessionID:      s.ID(),
		KeyActivityType:   s.ActivityType().String(),
		KeyTitle:          s.Title(),
		KeyStartTime:      strconv.FormatInt(s.StartTime().UnixMilli(), 10),
		KeyDataOrigin:     s.DataOrigin(),
		KeyState:          s.State().String(),
		KeyPauseIntervals: workout.EncodePauseIntervals(s.PauseIntervals()),
	}
	if err := t.prefs.SetAll(ctx, values); err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID(), err)
	}
	return nil
}

func (t *Tracker) clear(ctx context.Context) error {
	if err := t.prefs.RemoveAll(ctx, sessionKeys); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// load reads the persisted session. ok is false when no session is stored.
// Stored fields that cannot be decoded return ErrMalformedPersistedSession.
func (t *Tracker) load(ctx context.Context) (workout.Session, bool, error) {
	values := make(map[string]string, len(sessionKeys))
	for _, k := range sessionKeys {
		v, err := t.prefs.Get(ctx, k, "")
		if err != nil {
			return workout.Session{}, false, fmt.Errorf("loading session: %w", err)
		}
		values[k] = v
	}
	if values[KeySessionID] == "" {
		return workout.Session{}, false, nil
	}

	ms, err := strconv.ParseInt(values[KeyStartTime], 10, 64)
	if err != nil {
		return workout.Session{}, false, fmt.Errorf("start time %q: %w", values[KeyStartTime], workout.ErrMalformedPersistedSession)
	}
	state, err := workout.ParseState(values[KeyState])
	if err != nil {
		return workout.Session{}, false, fmt.Errorf("%v: %w", err, workout.ErrMalformedPersistedSession)
	}
	// Activity names written by a newer build fall back to Other.
	activity, _ := workout.ParseActivityType(values[KeyActivityType])

	s, err := workout.Restore(
		values[KeySessionID],
		activity,
		values[KeyTitle],
		values[KeyDataOrigin],
		time.UnixMilli(ms).UTC(),
		state,
		workout.DecodePauseIntervals(values[KeyPauseIntervals]),
	)
	if err != nil {
		return workout.Session{}, false, err
	}
	return s, true, nil
}
