// Package dedup finds workout records that two sources wrote for the same
// real-world activity.
package dedup

import (
	"time"

	"github.com/claude/workoutkit/internal/workout"
)

// DefaultThresholdMinutes is the start/end tolerance used when none is given.
const DefaultThresholdMinutes = 5

type options struct {
	thresholdMinutes int
	activity         *workout.ActivityType
}

// Option configures FindDuplicates.
type Option func(*options)

// WithThreshold sets the start/end tolerance in minutes.
func WithThreshold(minutes int) Option {
	return func(o *options) { o.thresholdMinutes = minutes }
}

// WithActivityType restricts candidates to one activity type.
func WithActivityType(t workout.ActivityType) Option {
	return func(o *options) { o.activity = &t }
}

// AreDuplicates reports whether a and b look like the same workout recorded
// by two different sources. The end-time check is skipped when either record
// has no end time.
func AreDuplicates(a, b workout.Record, thresholdMinutes int) bool {
	if a.ActivityType != b.ActivityType {
		return false
	}
	if a.DataOrigin == b.DataOrigin {
		return false
	}
	limit := time.Duration(thresholdMinutes) * time.Minute
	if absDiff(a.StartTime, b.StartTime) > limit {
		return false
	}
	if a.EndTime != nil && b.EndTime != nil && absDiff(*a.EndTime, *b.EndTime) > limit {
		return false
	}
	return true
}

// FindDuplicates groups records in a single greedy pass. Each ungrouped
// record in input order seeds a group made of every other ungrouped record
// that matches it. Matches are only tested against the seed, so grouping is
// not transitive and depends on input order.
func FindDuplicates(records []workout.Record, appSource string, opts ...Option) []DuplicateGroup {
	o := options{thresholdMinutes: DefaultThresholdMinutes}
	for _, opt := range opts {
		opt(&o)
	}

	candidates := records
	if o.activity != nil {
		candidates = make([]workout.Record, 0, len(records))
		for _, r := range records {
			if r.ActivityType == *o.activity {
				candidates = append(candidates, r)
			}
		}
	}

	grouped := make([]bool, len(candidates))
	var groups []DuplicateGroup
	for i, seed := range candidates {
		if grouped[i] {
			continue
		}
		var matches []int
		for j := i + 1; j < len(candidates); j++ {
			if !grouped[j] && AreDuplicates(seed, candidates[j], o.thresholdMinutes) {
				matches = append(matches, j)
			}
		}
		if len(matches) == 0 {
			continue
		}

		g := DuplicateGroup{AppSource: appSource, Workouts: []workout.Record{seed}}
		grouped[i] = true
		for _, j := range matches {
			g.Workouts = append(g.Workouts, candidates[j])
			grouped[j] = true
		}
		groups = append(groups, g)
	}
	return groups
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
