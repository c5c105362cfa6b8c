package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/workoutkit/internal/dedup"
	"github.com/claude/workoutkit/internal/ingest"
	"github.com/claude/workoutkit/internal/models"
	"github.com/claude/workoutkit/internal/workout"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

func newTestClient(url string) *Client {
	c := New(url, "secret")
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func ptr[T any](v T) *T { return &v }

var (
	testStart = time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
)

// TestQueryWorkouts verifies the time range and type filter reach the server
// and the record array is decoded.
func TestQueryWorkouts(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("start"); got != "2026-03-14T07:00:00Z" {
				t.Errorf("start=%q", got)
			}
			if got := q.Get("type"); got != "Cycling" {
				t.Errorf("type=%q, want Cycling", got)
			}
			writeTestJSON(t, w, http.StatusOK, []workout.Record{
				{ID: "a", ActivityType: workout.ActivityCycling, DataOrigin: "Watch", StartTime: testStart},
			})
		},
	})
	defer ts.Close()

	records, err := newTestClient(ts.URL).QueryWorkouts(context.Background(), testStart, testEnd, "Cycling")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ActivityType != workout.ActivityCycling {
		t.Errorf("activity=%v, want Cycling", records[0].ActivityType)
	}
}

// TestReadRecordsOmitsType verifies the health-store read does not filter by type.
func TestReadRecordsOmitsType(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Has("type") {
				t.Errorf("unexpected type param %q", r.URL.Query().Get("type"))
			}
			writeTestJSON(t, w, http.StatusOK, []workout.Record{})
		},
	})
	defer ts.Close()

	if _, err := newTestClient(ts.URL).ReadRecords(context.Background(), testStart, testEnd); err != nil {
		t.Fatal(err)
	}
}

// TestGetWorkoutNotFound verifies a 404 maps to ErrNotFound.
func TestGetWorkoutNotFound(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/missing": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		},
	})
	defer ts.Close()

	_, err := newTestClient(ts.URL).GetWorkout(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

// TestWriteRecordRetries verifies server errors are retried and the API key is sent.
func TestWriteRecordRetries(t *testing.T) {
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method=%s, want POST", r.Method)
			}
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key=%q, want secret", got)
			}
			var rec workout.Record
			if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if rec.ID != "abc" {
				t.Errorf("id=%q, want abc", rec.ID)
			}
			if calls.Add(1) < 3 {
				writeTestJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "db down"})
				return
			}
			writeTestJSON(t, w, http.StatusCreated, map[string]bool{"inserted": true})
		},
	})
	defer ts.Close()

	err := newTestClient(ts.URL).WriteRecord(context.Background(), workout.Record{ID: "abc", StartTime: testStart})
	if err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls=%d, want 3", got)
	}
}

// TestWriteRecordClientErrorNotRetried verifies a 4xx fails immediately.
func TestWriteRecordClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeTestJSON(t, w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		},
	})
	defer ts.Close()

	err := newTestClient(ts.URL).WriteRecord(context.Background(), workout.Record{})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		t.Fatalf("err=%v, want 400 StatusError", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls=%d, want 1", got)
	}
}

// TestWriteRecordGivesUp verifies the last error is returned after three attempts.
func TestWriteRecordGivesUp(t *testing.T) {
	var calls atomic.Int32
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeTestJSON(t, w, http.StatusServiceUnavailable, map[string]string{"error": "busy"})
		},
	})
	defer ts.Close()

	err := newTestClient(ts.URL).WriteRecord(context.Background(), workout.Record{ID: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != maxAttempts {
		t.Errorf("calls=%d, want %d", got, maxAttempts)
	}
}

// TestFindDuplicates verifies query params and group decoding.
func TestFindDuplicates(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/duplicates": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("app_source"); got != "MyApp" {
				t.Errorf("app_source=%q, want MyApp", got)
			}
			if got := q.Get("threshold"); got != "3" {
				t.Errorf("threshold=%q, want 3", got)
			}
			if q.Has("type") {
				t.Errorf("unexpected type param")
			}
			writeTestJSON(t, w, http.StatusOK, Duplicates{
				AppSource:        "MyApp",
				ThresholdMinutes: 3,
				Groups: []dedup.DuplicateGroup{{
					AppSource: "MyApp",
					Workouts: []workout.Record{
						{ID: "app", DataOrigin: "MyApp", StartTime: testStart},
						{ID: "ext", DataOrigin: "Garmin", StartTime: testStart.Add(time.Minute)},
					},
				}},
			})
		},
	})
	defer ts.Close()

	got, err := newTestClient(ts.URL).FindDuplicates(context.Background(), DuplicateQuery{
		Start: testStart, End: testEnd, AppSource: "MyApp", ThresholdMinutes: ptr(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(got.Groups))
	}
	if ext, ok := got.Groups[0].ExternalWorkout(); !ok || ext.ID != "ext" {
		t.Errorf("external=%v %v, want ext", ext.ID, ok)
	}
}

// TestFindDuplicatesThreshold verifies an explicit zero threshold is sent
// and an unset one is left to the server.
func TestFindDuplicatesThreshold(t *testing.T) {
	var got []string
	var present []bool
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/duplicates": func(w http.ResponseWriter, r *http.Request) {
			got = append(got, r.URL.Query().Get("threshold"))
			present = append(present, r.URL.Query().Has("threshold"))
			writeTestJSON(t, w, http.StatusOK, Duplicates{Groups: []dedup.DuplicateGroup{}})
		},
	})
	defer ts.Close()

	c := newTestClient(ts.URL)
	if _, err := c.FindDuplicates(context.Background(), DuplicateQuery{ThresholdMinutes: ptr(0)}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.FindDuplicates(context.Background(), DuplicateQuery{}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("requests=%d, want 2", len(got))
	}
	if !present[0] || got[0] != "0" {
		t.Errorf("zero threshold sent as %q (present=%v), want \"0\"", got[0], present[0])
	}
	if present[1] {
		t.Errorf("unset threshold sent as %q, want omitted", got[1])
	}
}

// TestResolve verifies the preference and dry-run flag are sent.
func TestResolve(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/duplicates/resolve": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method=%s, want POST", r.Method)
			}
			q := r.URL.Query()
			if got := q.Get("prefer"); got != "app" {
				t.Errorf("prefer=%q, want app", got)
			}
			if got := q.Get("dry_run"); got != "true" {
				t.Errorf("dry_run=%q, want true", got)
			}
			writeTestJSON(t, w, http.StatusOK, Resolution{
				Preference: "app",
				DryRun:     true,
				Plan:       dedup.Plan{Keep: []string{"app"}, Discard: []string{"ext"}},
			})
		},
	})
	defer ts.Close()

	res, err := newTestClient(ts.URL).Resolve(context.Background(), DuplicateQuery{}, dedup.PreferApp, true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun || len(res.Plan.Discard) != 1 || res.Deleted != 0 {
		t.Errorf("resolution=%+v", res)
	}
}

// TestSendHAEPayload verifies the payload and origin reach the ingest endpoint.
func TestSendHAEPayload(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/ingest/": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("origin"); got != "Apple Watch" {
				t.Errorf("origin=%q, want Apple Watch", got)
			}
			body, _ := io.ReadAll(r.Body)
			var p models.HAEPayload
			if err := json.Unmarshal(body, &p); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			writeTestJSON(t, w, http.StatusOK, ingest.Result{
				WorkoutsReceived: len(p.Data.Workouts),
				WorkoutsInserted: len(p.Data.Workouts),
			})
		},
	})
	defer ts.Close()

	payload := models.HAEPayload{}
	payload.Data.Workouts = []models.HAEWorkout{{ID: "w1", Name: "Outdoor Run"}}

	res, err := newTestClient(ts.URL).SendHAEPayload(context.Background(), payload, "Apple Watch")
	if err != nil {
		t.Fatal(err)
	}
	if res.WorkoutsInserted != 1 {
		t.Errorf("inserted=%d, want 1", res.WorkoutsInserted)
	}
}
