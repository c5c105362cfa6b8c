package dedup

import (
	"testing"
	"time"

	"github.com/claude/workoutkit/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(h, m int) time.Time {
	return time.Date(2026, 5, 2, h, m, 0, 0, time.UTC)
}

func rec(id string, t workout.ActivityType, origin string, start, end time.Time) workout.Record {
	return workout.Record{ID: id, ActivityType: t, DataOrigin: origin, StartTime: start, EndTime: &end}
}

func TestFindDuplicatesAppAndWatch(t *testing.T) {
	a := rec("A", workout.ActivityRunning, "App", clock(10, 0), clock(10, 30))
	b := rec("B", workout.ActivityRunning, "Watch", clock(10, 1), clock(10, 29))

	groups := FindDuplicates([]workout.Record{a, b}, "App", WithThreshold(5))
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Len(t, g.Workouts, 2)

	app, ok := g.AppWorkout()
	require.True(t, ok)
	assert.Equal(t, "A", app.ID)
	ext, ok := g.ExternalWorkout()
	require.True(t, ok)
	assert.Equal(t, "B", ext.ID)

	diff, ok := g.StartTimeDifferenceMinutes()
	require.True(t, ok)
	assert.Equal(t, 1.0, diff)
	diff, ok = g.EndTimeDifferenceMinutes()
	require.True(t, ok)
	assert.Equal(t, 1.0, diff)
}

func TestFindDuplicatesDefaultThreshold(t *testing.T) {
	a := rec("A", workout.ActivityRunning, "App", clock(10, 0), clock(10, 30))
	b := rec("B", workout.ActivityRunning, "Watch", clock(10, 5), clock(10, 30))
	assert.Len(t, FindDuplicates([]workout.Record{a, b}, "App"), 1)
}

func TestFindDuplicatesExcludesSixMinuteStartGap(t *testing.T) {
	a := rec("A", workout.ActivityRunning, "App", clock(10, 0), clock(10, 30))
	b := rec("B", workout.ActivityRunning, "Watch", clock(10, 6), clock(10, 30))
	assert.Empty(t, FindDuplicates([]workout.Record{a, b}, "App", WithThreshold(5)))
}

func TestFindDuplicatesExcludesEndGap(t *testing.T) {
	a := rec("A", workout.ActivityRunning, "App", clock(10, 0), clock(10, 30))
	b := rec("B", workout.ActivityRunning, "Watch", clock(10, 0), clock(10, 40))
	assert.Empty(t, FindDuplicates([]workout.Record{a, b}, "App"))
}

func TestFindDuplicatesDifferentTypes(t *testing.T) {
	a := rec("A", workout.ActivityRunning, "App", clock(10, 0), clock(10, 30))
	b := rec("B", workout.ActivityWalking, "Watch", clock(10, 0), clock(10, 30))
	assert.Empty(t, FindDuplicates([]workout.Record{a, b}, "App"))
}

func TestFindDuplicatesSameOrigin(t *testing.T) {
	a := rec("A", workout.ActivityRunning, "Watch", clock(10, 0), clock(10, 30))
	b := rec("B", workout.ActivityRunning, "Watch", clock(10, 0), clock(10, 30))
	assert.Empty(t, FindDuplicates([]workout.Record{a, b}, "App"))
}

func TestAreDuplicatesSkipsEndCheckWhenOpen(t *testing.T) {
	a := rec("A", workout.ActivityCycling, "App", clock(10, 0), clock(12, 0))
	b := workout.Record{ID: "B", ActivityType: workout.ActivityCycling, DataOrigin: "Watch", StartTime: clock(10, 2)}
	assert.True(t, AreDuplicates(a, b, 5))
	assert.True(t, AreDuplicates(b, a, 5))
}

// A matches B and C, B and C would not match each other: all three land in
// A's group because matches are only tested against the seed.
func TestFindDuplicatesIsSeedOrdered(t *testing.T) {
	a := rec("A", workout.ActivityRunning, "App", clock(10, 0), clock(10, 30))
	b := rec("B", workout.ActivityRunning, "Watch", clock(10, 4), clock(10, 30))
	c := rec("C", workout.ActivityRunning, "Phone", clock(9, 56), clock(10, 30))

	groups := FindDuplicates([]workout.Record{a, b, c}, "App")
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Workouts, 3)
	assert.Len(t, groups[0].ExternalWorkouts(), 2)

	// Seeded from B, C is out of reach and stays ungrouped.
	groups = FindDuplicates([]workout.Record{b, c, a}, "App")
	require.Len(t, groups, 1)
	ids := []string{}
	for _, w := range groups[0].Workouts {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"B", "A"}, ids)
}

func TestFindDuplicatesGroupOrder(t *testing.T) {
	r1 := rec("r1", workout.ActivityYoga, "App", clock(7, 0), clock(8, 0))
	r2 := rec("r2", workout.ActivityYoga, "Watch", clock(7, 1), clock(8, 0))
	s1 := rec("s1", workout.ActivityYoga, "App", clock(18, 0), clock(19, 0))
	s2 := rec("s2", workout.ActivityYoga, "Watch", clock(18, 2), clock(19, 1))
	lone := rec("lone", workout.ActivityYoga, "App", clock(12, 0), clock(13, 0))

	groups := FindDuplicates([]workout.Record{s1, lone, r1, s2, r2}, "App")
	require.Len(t, groups, 2)
	assert.Equal(t, "s1", groups[0].Workouts[0].ID)
	assert.Equal(t, "r1", groups[1].Workouts[0].ID)
}

func TestFindDuplicatesActivityFilter(t *testing.T) {
	runs := []workout.Record{
		rec("A", workout.ActivityRunning, "App", clock(10, 0), clock(10, 30)),
		rec("B", workout.ActivityRunning, "Watch", clock(10, 1), clock(10, 30)),
		rec("C", workout.ActivityCycling, "App", clock(15, 0), clock(16, 0)),
		rec("D", workout.ActivityCycling, "Watch", clock(15, 0), clock(16, 0)),
	}
	groups := FindDuplicates(runs, "App", WithActivityType(workout.ActivityCycling))
	require.Len(t, groups, 1)
	assert.Equal(t, "C", groups[0].Workouts[0].ID)
}

func TestGroupWithoutAppWorkout(t *testing.T) {
	g := DuplicateGroup{
		AppSource: "App",
		Workouts: []workout.Record{
			rec("B", workout.ActivityRunning, "Watch", clock(10, 0), clock(10, 30)),
			rec("C", workout.ActivityRunning, "Phone", clock(10, 0), clock(10, 30)),
		},
	}
	_, ok := g.AppWorkout()
	assert.False(t, ok)
	assert.Len(t, g.ExternalWorkouts(), 2)
	_, ok = g.StartTimeDifferenceMinutes()
	assert.False(t, ok)
}
