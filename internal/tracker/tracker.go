// Package tracker owns the single active workout session of a process. Every
// state change is written to a preference store so that a session survives a
// restart, and ending a session hands the finished record to a health store.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/workoutkit/internal/dedup"
	"github.com/claude/workoutkit/internal/prefs"
	"github.com/claude/workoutkit/internal/workout"
	"github.com/google/uuid"
)

// ErrSessionInProgress is returned by Start while another session is active.
var ErrSessionInProgress = errors.New("a workout session is already in progress")

// HealthStore reads and writes finalized workout records.
type HealthStore interface {
	ReadRecords(ctx context.Context, start, end time.Time) ([]workout.Record, error)
	WriteRecord(ctx context.Context, rec workout.Record) error
}

// Tracker serializes all access to the active session.
type Tracker struct {
	prefs     prefs.Store
	health    HealthStore
	log       *slog.Logger
	now       func() time.Time
	newID     func() string
	threshold int

	mu      sync.Mutex
	session *workout.Session
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(f func() string) Option {
	return func(t *Tracker) { t.newID = f }
}

// WithThreshold sets the tolerance, in minutes, used to match a sensor
// record in EndFromSensors.
func WithThreshold(minutes int) Option {
	return func(t *Tracker) { t.threshold = minutes }
}

// New creates a Tracker. Call Restore to pick up a persisted session.
func New(store prefs.Store, health HealthStore, log *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		prefs:     store,
		health:    health,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
		threshold: dedup.DefaultThresholdMinutes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins a new Running session.
func (t *Tracker) Start(ctx context.Context, activity workout.ActivityType, title, dataOrigin string) (workout.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		return *t.session, fmt.Errorf("starting session: %w (id %s)", ErrSessionInProgress, t.session.ID())
	}

	s := workout.Start(t.newID(), activity, title, dataOrigin, t.now())
	if err := t.save(ctx, s); err != nil {
		return workout.Session{}, err
	}
	t.session = &s
	t.log.Info("session started", "id", s.ID(), "activity", s.ActivityType().String(), "origin", s.DataOrigin())
	return s, nil
}

// Pause pauses the active session. ok is false when there is none.
func (t *Tracker) Pause(ctx context.Context) (workout.Session, bool, error) {
	return t.transition(ctx, "paused", workout.Session.Pause)
}

// Resume resumes the active session. ok is false when there is none.
func (t *Tracker) Resume(ctx context.Context) (workout.Session, bool, error) {
	return t.transition(ctx, "resumed", workout.Session.Resume)
}

func (t *Tracker) transition(ctx context.Context, verb string, step func(workout.Session, time.Time) (workout.Session, error)) (workout.Session, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return workout.Session{}, false, nil
	}
	next, err := step(*t.session, t.now())
	if err != nil {
		return *t.session, true, err
	}
	if err := t.save(ctx, next); err != nil {
		return *t.session, true, err
	}
	t.session = &next
	t.log.Info("session "+verb, "id", next.ID(), "pauses", next.PauseCount())
	return next, true, nil
}

// End finalizes the active session with the given measurements and writes
// the record to the health store. ok is false when there is no session.
// If the write fails the session stays active and End can be retried.
func (t *Tracker) End(ctx context.Context, m workout.Metrics) (workout.Record, bool, error) {
	return t.finish(ctx, func(ended workout.Session, end time.Time) workout.Record {
		return workout.ToRecord(ended, end, m)
	})
}

// EndFromSensors is End with measurements taken from a record another
// source wrote for the same workout, when the health store has one.
func (t *Tracker) EndFromSensors(ctx context.Context) (workout.Record, bool, error) {
	return t.finish(ctx, func(ended workout.Session, end time.Time) workout.Record {
		draft := workout.ToRecord(ended, end, workout.Metrics{})
		if match, ok := t.sensorRecord(ctx, draft); ok {
			t.log.Info("adopting sensor metrics", "id", draft.ID, "source", match.DataOrigin, "record", match.ID)
			return workout.OverlayRecord(ended, match, end)
		}
		return draft
	})
}

func (t *Tracker) sensorRecord(ctx context.Context, draft workout.Record) (workout.Record, bool) {
	margin := time.Duration(t.threshold) * time.Minute
	records, err := t.health.ReadRecords(ctx, draft.StartTime.Add(-margin), draft.EndTime.Add(margin))
	if err != nil {
		t.log.Warn("reading sensor records", "id", draft.ID, "error", err)
		return workout.Record{}, false
	}
	for _, r := range records {
		if r.ID != draft.ID && !r.Metrics.IsEmpty() && dedup.AreDuplicates(draft, r, t.threshold) {
			return r, true
		}
	}
	return workout.Record{}, false
}

func (t *Tracker) finish(ctx context.Context, build func(workout.Session, time.Time) workout.Record) (workout.Record, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return workout.Record{}, false, nil
	}

	end := t.now()
	ended, err := t.session.End(end)
	if err != nil {
		return workout.Record{}, true, err
	}
	rec := build(ended, end)

	if err := t.health.WriteRecord(ctx, rec); err != nil {
		return workout.Record{}, true, fmt.Errorf("writing record %s: %w", rec.ID, err)
	}
	if err := t.clear(ctx); err != nil {
		t.log.Error("record written but session keys remain", "id", rec.ID, "error", err)
	}
	t.session = nil
	t.log.Info("session ended", "id", rec.ID,
		"active_sec", rec.ActiveDurationSeconds, "paused_sec", rec.PausedDurationSeconds)
	return rec, true, nil
}

// Current returns the active session, if any.
func (t *Tracker) Current() (workout.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return workout.Session{}, false
	}
	return *t.session, true
}

// Restore loads the persisted session into the tracker. Unreadable data is
// logged, removed from the store, and treated as no session.
func (t *Tracker) Restore(ctx context.Context) (workout.Session, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		return *t.session, true, nil
	}

	s, ok, err := t.load(ctx)
	if errors.Is(err, workout.ErrMalformedPersistedSession) {
		t.log.Warn("discarding persisted session", "error", err)
		return workout.Session{}, false, t.clear(ctx)
	}
	if err != nil || !ok {
		return workout.Session{}, false, err
	}
	t.session = &s
	t.log.Info("session restored", "id", s.ID(), "state", s.State().String())
	return s, true, nil
}

// Status is a point-in-time view of the active session.
type Status struct {
	ID             string               `json:"id"`
	ActivityType   workout.ActivityType `json:"activity_type"`
	Title          string               `json:"title,omitempty"`
	DataOrigin     string               `json:"data_origin"`
	State          string               `json:"state"`
	StartTime      time.Time            `json:"start_time"`
	ElapsedSeconds float64              `json:"elapsed_seconds"`
	ActiveSeconds  float64              `json:"active_seconds"`
	PausedSeconds  float64              `json:"paused_seconds"`
	PauseCount     int                  `json:"pause_count"`
}

// Status reports the active session's durations, all read at one instant.
func (t *Tracker) Status() (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return Status{}, false
	}
	s := *t.session
	now := t.now()
	return Status{
		ID:             s.ID(),
		ActivityType:   s.ActivityType(),
		Title:          s.Title(),
		DataOrigin:     s.DataOrigin(),
		State:          s.State().String(),
		StartTime:      s.StartTime(),
		ElapsedSeconds: s.Elapsed(now).Seconds(),
		ActiveSeconds:  s.ActiveDuration(now).Seconds(),
		PausedSeconds:  s.TotalPaused(now).Seconds(),
		PauseCount:     s.PauseCount(),
	}, true
}
