package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/claude/workoutkit/internal/client"
	"github.com/claude/workoutkit/internal/dedup"
	"github.com/claude/workoutkit/internal/haetcp"
	"github.com/claude/workoutkit/internal/ingest"
	"github.com/claude/workoutkit/internal/models"
	"github.com/claude/workoutkit/internal/prefs"
	"github.com/claude/workoutkit/internal/tracker"
	"github.com/claude/workoutkit/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeRemote is both the tracker's health store and the CLI's server API.
type fakeRemote struct {
	written    []workout.Record
	records    []workout.Record
	writeErr   error
	lastQuery  client.DuplicateQuery
	lastPref   dedup.Preference
	lastDryRun bool
	lastOrigin string
	payload    models.HAEPayload
}

func (f *fakeRemote) ReadRecords(_ context.Context, _, _ time.Time) ([]workout.Record, error) {
	return f.records, nil
}

func (f *fakeRemote) WriteRecord(_ context.Context, rec workout.Record) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, rec)
	return nil
}

func (f *fakeRemote) QueryWorkouts(_ context.Context, start, end time.Time, activity string) ([]workout.Record, error) {
	f.lastQuery = client.DuplicateQuery{Start: start, End: end, ActivityType: activity}
	return f.records, nil
}

func (f *fakeRemote) FindDuplicates(_ context.Context, q client.DuplicateQuery) (*client.Duplicates, error) {
	f.lastQuery = q
	groups := dedup.FindDuplicates(f.records, "workoutkit")
	return &client.Duplicates{AppSource: "workoutkit", ThresholdMinutes: 5, Groups: groups}, nil
}

func (f *fakeRemote) Resolve(_ context.Context, q client.DuplicateQuery, pref dedup.Preference, dryRun bool) (*client.Resolution, error) {
	f.lastQuery, f.lastPref, f.lastDryRun = q, pref, dryRun
	plan := dedup.PlanCleanup(dedup.FindDuplicates(f.records, "workoutkit"), pref)
	res := &client.Resolution{Preference: pref.String(), DryRun: dryRun, Plan: plan}
	if !dryRun {
		res.Deleted = int64(len(plan.Discard))
	}
	return res, nil
}

func (f *fakeRemote) SendHAEPayload(_ context.Context, p models.HAEPayload, origin string) (*ingest.Result, error) {
	f.payload, f.lastOrigin = p, origin
	n := len(p.Data.Workouts)
	return &ingest.Result{WorkoutsReceived: n, WorkoutsInserted: n}, nil
}

// fakeSource hands out fixed chunks for sync.
type fakeSource struct {
	host    string
	port    int
	chunk   time.Duration
	chunks  []haetcp.Chunk
	skipped int
}

func (f *fakeSource) Fetch(_ context.Context, _, _ time.Time, chunk time.Duration, fn func(haetcp.Chunk) error) (int, error) {
	f.chunk = chunk
	for _, c := range f.chunks {
		if err := fn(c); err != nil {
			return f.skipped, err
		}
	}
	return f.skipped, nil
}

type testEnv struct {
	store  *prefs.Memory
	remote *fakeRemote
	source *fakeSource
	clock  *testClock
}

func newTestEnv() *testEnv {
	return &testEnv{
		store:  prefs.NewMemory(),
		remote: &fakeRemote{},
		source: &fakeSource{},
		clock:  &testClock{now: testStart},
	}
}

// app builds a fresh App as a new process would, sharing the env's store.
func (e *testEnv) app(terminal bool) *App {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ids := 0
	return &App{
		Tracker: tracker.New(e.store, e.remote, log,
			tracker.WithClock(e.clock.Now),
			tracker.WithIDGenerator(func() string { ids++; return "session-" + strconv.Itoa(ids) }),
		),
		Remote:     e.remote,
		Origin:     DefaultOrigin,
		IsTerminal: func() bool { return terminal },
		DialHAE:    func(host string, port int) WorkoutSource {
			e.source.host, e.source.port = host, port
			return e.source
		},
	}
}

// executeCmd runs a cobra command in a fresh process-like App and captures output.
func executeCmd(t *testing.T, e *testEnv, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(e.app(false))
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func decodeStatus(t *testing.T, out string) tracker.Status {
	t.Helper()
	var st tracker.Status
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	return st
}

// --- session commands ---

func TestSessionLifecycleAcrossInvocations(t *testing.T) {
	e := newTestEnv()

	out, err := executeCmd(t, e, "start", "cycling", "--title", "Commute")
	require.NoError(t, err)
	st := decodeStatus(t, out)
	assert.Equal(t, workout.ActivityCycling, st.ActivityType)
	assert.Equal(t, "Running", st.State)
	assert.Equal(t, DefaultOrigin, st.DataOrigin)

	e.clock.advance(10 * time.Minute)
	out, err = executeCmd(t, e, "pause")
	require.NoError(t, err)
	assert.Equal(t, "Paused", decodeStatus(t, out).State)

	e.clock.advance(5 * time.Minute)
	out, err = executeCmd(t, e, "resume")
	require.NoError(t, err)
	st = decodeStatus(t, out)
	assert.Equal(t, "Running", st.State)
	assert.Equal(t, 300.0, st.PausedSeconds)

	e.clock.advance(15 * time.Minute)
	out, err = executeCmd(t, e, "end", "--energy", "420", "--avg-hr", "141")
	require.NoError(t, err)

	var recs []workout.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, 1500.0, recs[0].ActiveDurationSeconds)
	assert.Equal(t, 300.0, recs[0].PausedDurationSeconds)
	assert.Equal(t, 1, recs[0].PauseCount)
	require.NotNil(t, recs[0].EnergyBurned)
	assert.Equal(t, 420.0, *recs[0].EnergyBurned)
	assert.Nil(t, recs[0].Distance)

	require.Len(t, e.remote.written, 1)
	assert.Equal(t, 0, e.store.Len(), "session keys should be cleared after a successful end")
}

func TestStartRejectsSecondSession(t *testing.T) {
	e := newTestEnv()
	_, err := executeCmd(t, e, "start", "running")
	require.NoError(t, err)

	_, err = executeCmd(t, e, "start", "walking")
	require.Error(t, err)
	assert.ErrorIs(t, err, tracker.ErrSessionInProgress)
}

func TestStartUnknownActivity(t *testing.T) {
	_, err := executeCmd(t, newTestEnv(), "start", "quidditch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown activity type")
}

func TestPauseWithoutSession(t *testing.T) {
	_, err := executeCmd(t, newTestEnv(), "pause")
	assert.ErrorIs(t, err, errNoSession)
}

func TestResumeWhileRunningFails(t *testing.T) {
	e := newTestEnv()
	_, err := executeCmd(t, e, "start", "yoga")
	require.NoError(t, err)

	_, err = executeCmd(t, e, "resume")
	assert.ErrorIs(t, err, workout.ErrInvalidSessionState)
}

func TestEndWriteFailureKeepsSession(t *testing.T) {
	e := newTestEnv()
	_, err := executeCmd(t, e, "start", "rowing")
	require.NoError(t, err)

	e.remote.writeErr = errors.New("server unreachable")
	e.clock.advance(20 * time.Minute)
	_, err = executeCmd(t, e, "end")
	require.Error(t, err)

	out, err := executeCmd(t, e, "status")
	require.NoError(t, err)
	assert.Equal(t, "Running", decodeStatus(t, out).State)

	e.remote.writeErr = nil
	e.clock.advance(time.Minute)
	_, err = executeCmd(t, e, "end")
	require.NoError(t, err)
	require.Len(t, e.remote.written, 1)
	assert.Equal(t, 1260.0, e.remote.written[0].ActiveDurationSeconds)
}

func TestEndFlagsAreExclusive(t *testing.T) {
	e := newTestEnv()
	_, err := executeCmd(t, e, "start", "running")
	require.NoError(t, err)

	_, err = executeCmd(t, e, "end", "--from-sensors", "--energy", "10")
	assert.Error(t, err)
}

func TestEndFromSensors(t *testing.T) {
	e := newTestEnv()
	_, err := executeCmd(t, e, "start", "running")
	require.NoError(t, err)

	hr := 150.0
	watchEnd := testStart.Add(30 * time.Minute)
	e.remote.records = []workout.Record{{
		ID:           "watch-1",
		ActivityType: workout.ActivityRunning,
		DataOrigin:   "Apple Watch",
		StartTime:    testStart.Add(time.Minute),
		EndTime:      &watchEnd,
		Metrics:      workout.Metrics{AverageHeartRate: &hr},
	}}

	e.clock.advance(30 * time.Minute)
	_, err = executeCmd(t, e, "end", "--from-sensors")
	require.NoError(t, err)
	require.Len(t, e.remote.written, 1)
	require.NotNil(t, e.remote.written[0].AverageHeartRate)
	assert.Equal(t, 150.0, *e.remote.written[0].AverageHeartRate)
	assert.Equal(t, DefaultOrigin, e.remote.written[0].DataOrigin)
}

func TestStatusWithoutSession(t *testing.T) {
	out, err := executeCmd(t, newTestEnv(), "status")
	require.NoError(t, err)
	assert.JSONEq(t, `{"active": false}`, out)
}

func TestStatusTable(t *testing.T) {
	e := newTestEnv()
	_, err := executeCmd(t, e, "start", "hiking", "--title", "Ridge")
	require.NoError(t, err)
	e.clock.advance(90 * time.Second)

	root := NewRootCmd(e.app(true))
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"status"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "WORKOUT")
	assert.Contains(t, out, "Hiking (Ridge)")
	assert.Contains(t, out, "1m30s")
}

// --- history commands ---

func dupRecords() []workout.Record {
	appEnd := testStart.Add(30 * time.Minute)
	extEnd := testStart.Add(31 * time.Minute)
	return []workout.Record{
		{ID: "app", ActivityType: workout.ActivityCycling, DataOrigin: "workoutkit", StartTime: testStart, EndTime: &appEnd},
		{ID: "ext", ActivityType: workout.ActivityCycling, DataOrigin: "Garmin", StartTime: testStart.Add(2 * time.Minute), EndTime: &extEnd},
	}
}

func TestListPassesFilters(t *testing.T) {
	e := newTestEnv()
	e.remote.records = dupRecords()

	out, err := executeCmd(t, e, "list", "--start", "2026-03-01", "--end", "2026-03-31", "--type", "cycling")
	require.NoError(t, err)
	assert.Equal(t, "Cycling", e.remote.lastQuery.ActivityType)
	assert.Equal(t, 2026, e.remote.lastQuery.Start.Year())

	var recs []workout.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	assert.Len(t, recs, 2)
}

func TestListRejectsBackwardsRange(t *testing.T) {
	_, err := executeCmd(t, newTestEnv(), "list", "--start", "2026-03-31", "--end", "2026-03-01")
	assert.Error(t, err)
}

func TestDuplicatesCmd(t *testing.T) {
	e := newTestEnv()
	e.remote.records = dupRecords()

	out, err := executeCmd(t, e, "duplicates", "--threshold", "3", "--app-source", "workoutkit")
	require.NoError(t, err)
	require.NotNil(t, e.remote.lastQuery.ThresholdMinutes)
	assert.Equal(t, 3, *e.remote.lastQuery.ThresholdMinutes)

	var found client.Duplicates
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found.Groups, 1)
	assert.Len(t, found.Groups[0].Workouts, 2)
}

func TestDuplicatesCmdThreshold(t *testing.T) {
	e := newTestEnv()
	e.remote.records = dupRecords()

	_, err := executeCmd(t, e, "duplicates")
	require.NoError(t, err)
	assert.Nil(t, e.remote.lastQuery.ThresholdMinutes, "unset flag defers to the server")

	_, err = executeCmd(t, e, "duplicates", "--threshold", "0")
	require.NoError(t, err)
	require.NotNil(t, e.remote.lastQuery.ThresholdMinutes)
	assert.Equal(t, 0, *e.remote.lastQuery.ThresholdMinutes)
}

func TestResolveCmd(t *testing.T) {
	e := newTestEnv()
	e.remote.records = dupRecords()

	out, err := executeCmd(t, e, "resolve", "--prefer", "app", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, dedup.PreferApp, e.remote.lastPref)
	assert.True(t, e.remote.lastDryRun)

	var res client.Resolution
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"ext"}, res.Plan.Discard)

	_, err = executeCmd(t, e, "resolve", "--prefer", "newest")
	assert.Error(t, err)
}

func TestImportCmd(t *testing.T) {
	e := newTestEnv()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":{"workouts":[
		{"id":"6E2C6D3E-0F4B-4E3B-9C1B-2F8E5A1D7C10","name":"Outdoor Run",
		 "start":"2026-03-14 07:00:00 +0000","end":"2026-03-14 07:30:00 +0000","duration":1800}
	]}}`), 0644))

	out, err := executeCmd(t, e, "import", path, "--origin", "Apple Watch")
	require.NoError(t, err)
	assert.Equal(t, "Apple Watch", e.remote.lastOrigin)
	require.Len(t, e.remote.payload.Data.Workouts, 1)

	var res ingest.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.WorkoutsInserted)
}

func TestImportMissingFile(t *testing.T) {
	_, err := executeCmd(t, newTestEnv(), "import", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable([]string{"A", "LONGER"}, [][]string{{"wide value", "x"}})
	lines := bytes.Split([]byte(out), []byte("\n"))
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, string(lines[2]), "wide value  x")
}

func haeChunk(ids ...string) haetcp.Chunk {
	p := &models.HAEPayload{}
	for _, id := range ids {
		p.Data.Workouts = append(p.Data.Workouts, models.HAEWorkout{ID: id, Name: "Running"})
	}
	return haetcp.Chunk{Start: testStart, End: testStart.Add(24 * time.Hour), Payload: p}
}

func TestSyncUploadsEachChunk(t *testing.T) {
	e := newTestEnv()
	e.source.chunks = []haetcp.Chunk{haeChunk("a", "b"), haeChunk("c")}
	e.source.skipped = 1

	out, err := executeCmd(t, e, "sync", "--hae-host", "iphone.local", "--chunk-days", "2", "--origin", "Apple Watch")
	require.NoError(t, err)
	assert.Equal(t, "iphone.local", e.source.host)
	assert.Equal(t, haetcp.DefaultPort, e.source.port)
	assert.Equal(t, 48*time.Hour, e.source.chunk)
	assert.Equal(t, "Apple Watch", e.remote.lastOrigin)

	var res ingest.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.WorkoutsReceived)
	assert.Equal(t, 3, res.WorkoutsInserted)
	assert.Contains(t, res.Message, "1 window(s)")
}

func TestSyncDryRunDoesNotUpload(t *testing.T) {
	e := newTestEnv()
	e.source.chunks = []haetcp.Chunk{haeChunk("a", "b")}

	out, err := executeCmd(t, e, "sync", "--hae-host", "iphone.local", "--dry-run")
	require.NoError(t, err)
	assert.Empty(t, e.remote.lastOrigin)
	assert.Empty(t, e.remote.payload.Data.Workouts)

	var res ingest.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.WorkoutsReceived)
	assert.Zero(t, res.WorkoutsInserted)
}

func TestSyncRequiresHost(t *testing.T) {
	_, err := executeCmd(t, newTestEnv(), "sync")
	assert.Error(t, err)
}
