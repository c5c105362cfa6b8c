// Package observability holds the Prometheus metrics exported on /metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	workoutsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workoutkit",
		Subsystem: "workouts",
		Name:      "recorded_total",
		Help:      "Workout records stored, by activity type and data origin.",
	}, []string{"activity_type", "data_origin"})

	ingestWorkouts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workoutkit",
		Subsystem: "ingest",
		Name:      "workouts_total",
		Help:      "Workouts seen by ingest endpoints, by source and outcome.",
	}, []string{"source", "outcome"})

	duplicateGroups = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "workoutkit",
		Subsystem: "dedup",
		Name:      "groups_found_total",
		Help:      "Duplicate groups returned by duplicate searches.",
	})

	duplicatesDiscarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "workoutkit",
		Subsystem: "dedup",
		Name:      "records_discarded_total",
		Help:      "Workout records deleted by duplicate cleanup.",
	})
)

func init() {
	prometheus.MustRegister(workoutsRecorded, ingestWorkouts, duplicateGroups, duplicatesDiscarded)
}

// RecordWorkout counts a stored workout.
func RecordWorkout(activityType, dataOrigin string) {
	workoutsRecorded.WithLabelValues(activityType, dataOrigin).Inc()
}

// RecordIngest adds n workouts with the given outcome (inserted, skipped, rejected).
func RecordIngest(source, outcome string, n int) {
	if n <= 0 {
		return
	}
	ingestWorkouts.WithLabelValues(source, outcome).Add(float64(n))
}

// RecordDuplicateGroups counts groups returned by a search.
func RecordDuplicateGroups(n int) {
	duplicateGroups.Add(float64(n))
}

// RecordDiscarded counts records removed by cleanup.
func RecordDiscarded(n int64) {
	duplicatesDiscarded.Add(float64(n))
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
