package dedup

import "github.com/claude/workoutkit/internal/workout"

// DuplicateGroup is a set of records judged to describe one activity.
type DuplicateGroup struct {
	Workouts  []workout.Record `json:"workouts"`
	AppSource string           `json:"app_source"`
}

func (g DuplicateGroup) appIndex() int {
	for i, w := range g.Workouts {
		if w.DataOrigin == g.AppSource {
			return i
		}
	}
	return -1
}

// AppWorkout returns the first record written by the app source.
func (g DuplicateGroup) AppWorkout() (workout.Record, bool) {
	i := g.appIndex()
	if i < 0 {
		return workout.Record{}, false
	}
	return g.Workouts[i], true
}

// ExternalWorkouts returns every record other than AppWorkout.
func (g DuplicateGroup) ExternalWorkouts() []workout.Record {
	app := g.appIndex()
	out := make([]workout.Record, 0, len(g.Workouts))
	for i, w := range g.Workouts {
		if i != app {
			out = append(out, w)
		}
	}
	return out
}

// ExternalWorkout returns the first external record.
func (g DuplicateGroup) ExternalWorkout() (workout.Record, bool) {
	ext := g.ExternalWorkouts()
	if len(ext) == 0 {
		return workout.Record{}, false
	}
	return ext[0], true
}

// StartTimeDifferenceMinutes is the absolute start difference between the
// app record and the first external record.
func (g DuplicateGroup) StartTimeDifferenceMinutes() (float64, bool) {
	app, ok := g.AppWorkout()
	if !ok {
		return 0, false
	}
	ext, ok := g.ExternalWorkout()
	if !ok {
		return 0, false
	}
	return absDiff(app.StartTime, ext.StartTime).Minutes(), true
}

// EndTimeDifferenceMinutes is like StartTimeDifferenceMinutes for end times.
// ok is false when either record has no end time.
func (g DuplicateGroup) EndTimeDifferenceMinutes() (float64, bool) {
	app, ok := g.AppWorkout()
	if !ok || app.EndTime == nil {
		return 0, false
	}
	ext, ok := g.ExternalWorkout()
	if !ok || ext.EndTime == nil {
		return 0, false
	}
	return absDiff(*app.EndTime, *ext.EndTime).Minutes(), true
}
