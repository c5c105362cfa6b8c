package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/workoutkit/internal/workout"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a workout does not exist.
var ErrNotFound = errors.New("workout not found")

const workoutColumns = `id, activity_type, title, data_origin, start_time, end_time,
	 energy_burned, distance, avg_heart_rate, max_heart_rate, min_heart_rate,
	 active_duration_sec, paused_duration_sec, pause_count, pause_intervals`

// InsertWorkout inserts a workout record. Returns true if inserted, false if duplicate.
func (db *DB) InsertWorkout(ctx context.Context, rec workout.Record) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO workouts (`+workoutColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		 ON CONFLICT DO NOTHING`,
		rec.ID, rec.ActivityType.String(), rec.Title, rec.DataOrigin, rec.StartTime, rec.EndTime,
		rec.EnergyBurned, rec.Distance, rec.AverageHeartRate, rec.MaxHeartRate, rec.MinHeartRate,
		rec.ActiveDurationSeconds, rec.PausedDurationSeconds, rec.PauseCount,
		workout.EncodePauseIntervals(rec.PauseIntervals))
	if err != nil {
		return false, fmt.Errorf("inserting workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryWorkouts retrieves workouts starting in [start, end), newest first.
// An empty activity matches every type.
func (db *DB) QueryWorkouts(ctx context.Context, start, end time.Time, activity string) ([]workout.Record, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+`
		 FROM workouts
		 WHERE start_time >= $1 AND start_time < $2
		   AND ($3 = '' OR activity_type = $3)
		 ORDER BY start_time DESC`,
		start, end, activity)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	return scanWorkoutRows(rows)
}

// GetWorkout retrieves a single workout by ID.
func (db *DB) GetWorkout(ctx context.Context, id string) (*workout.Record, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id)

	rec, err := scanWorkout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("workout %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	return &rec, nil
}

// DeleteWorkouts removes the given workouts and returns how many existed.
func (db *DB) DeleteWorkouts(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workouts WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("deleting workouts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReadRecords returns every workout starting in [start, end).
func (db *DB) ReadRecords(ctx context.Context, start, end time.Time) ([]workout.Record, error) {
	return db.QueryWorkouts(ctx, start, end, "")
}

// WriteRecord stores rec. Writing a record whose ID already exists is a no-op.
func (db *DB) WriteRecord(ctx context.Context, rec workout.Record) error {
	_, err := db.InsertWorkout(ctx, rec)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (workout.Record, error) {
	var (
		rec      workout.Record
		activity string
		pauses   string
	)
	if err := row.Scan(&rec.ID, &activity, &rec.Title, &rec.DataOrigin, &rec.StartTime, &rec.EndTime,
		&rec.EnergyBurned, &rec.Distance, &rec.AverageHeartRate, &rec.MaxHeartRate, &rec.MinHeartRate,
		&rec.ActiveDurationSeconds, &rec.PausedDurationSeconds, &rec.PauseCount, &pauses); err != nil {
		return workout.Record{}, err
	}
	rec.ActivityType, _ = workout.ParseActivityType(activity)
	rec.PauseIntervals = workout.DecodePauseIntervals(pauses)
	return rec, nil
}

func scanWorkoutRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]workout.Record, error) {
	result := []workout.Record{}
	for rows.Next() {
		rec, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
