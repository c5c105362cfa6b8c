// Package client calls the workoutkit REST API. The workoutctl tracker uses it
// as its health store and the stdio MCP binary uses it as a data source when
// the database lives on a remote server (reached over Tailscale).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/workoutkit/internal/dedup"
	"github.com/claude/workoutkit/internal/ingest"
	"github.com/claude/workoutkit/internal/models"
	"github.com/claude/workoutkit/internal/tracker"
	"github.com/claude/workoutkit/internal/workout"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("client: not found")

const maxAttempts = 3

// Client sends requests to a workoutkit server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

// Compile-time check: Client satisfies tracker.HealthStore.
var _ tracker.HealthStore = (*Client)(nil)

// New creates a Client targeting baseURL. apiKey is sent as X-API-Key on
// write requests and may be empty for read-only use.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Duplicates is the response of the duplicate search endpoint.
type Duplicates struct {
	AppSource        string                 `json:"app_source"`
	ThresholdMinutes int                    `json:"threshold_minutes"`
	Groups           []dedup.DuplicateGroup `json:"groups"`
}

// Resolution is the response of the duplicate resolve endpoint.
type Resolution struct {
	Preference string     `json:"prefer"`
	DryRun     bool       `json:"dry_run"`
	Plan       dedup.Plan `json:"plan"`
	Deleted    int64      `json:"deleted"`
}

// DuplicateQuery selects the records searched for duplicates. Zero values
// fall back to the server's defaults. ThresholdMinutes is sent whenever it
// is set, so a pointer to 0 asks for exact matches.
type DuplicateQuery struct {
	Start            time.Time
	End              time.Time
	ActivityType     string
	AppSource        string
	ThresholdMinutes *int
}

func (q DuplicateQuery) values() url.Values {
	v := url.Values{}
	if !q.Start.IsZero() {
		v.Set("start", q.Start.Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		v.Set("end", q.End.Format(time.RFC3339))
	}
	if q.ActivityType != "" {
		v.Set("type", q.ActivityType)
	}
	if q.AppSource != "" {
		v.Set("app_source", q.AppSource)
	}
	if q.ThresholdMinutes != nil {
		v.Set("threshold", strconv.Itoa(*q.ThresholdMinutes))
	}
	return v
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

// QueryWorkouts lists workouts starting in [start, end]. An empty activity
// matches every type.
func (c *Client) QueryWorkouts(ctx context.Context, start, end time.Time, activity string) ([]workout.Record, error) {
	params := timeParams(start, end)
	if activity != "" {
		params.Set("type", activity)
	}

	var records []workout.Record
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts", params, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetWorkout fetches one workout by ID.
func (c *Client) GetWorkout(ctx context.Context, id string) (*workout.Record, error) {
	var rec workout.Record
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+url.PathEscape(id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReadRecords returns every workout in the window regardless of type.
func (c *Client) ReadRecords(ctx context.Context, start, end time.Time) ([]workout.Record, error) {
	return c.QueryWorkouts(ctx, start, end, "")
}

// WriteRecord stores rec on the server. Writing an ID the server already has
// succeeds without changing it.
func (c *Client) WriteRecord(ctx context.Context, rec workout.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling workout: %w", err)
	}
	return c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodPost, "/api/v1/workouts", nil, data, nil)
	})
}

// FindDuplicates asks the server for duplicate groups.
func (c *Client) FindDuplicates(ctx context.Context, q DuplicateQuery) (*Duplicates, error) {
	var out Duplicates
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts/duplicates", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Resolve deletes the losing side of every duplicate group. With dryRun the
// server only reports its plan.
func (c *Client) Resolve(ctx context.Context, q DuplicateQuery, pref dedup.Preference, dryRun bool) (*Resolution, error) {
	params := q.values()
	params.Set("prefer", pref.String())
	if dryRun {
		params.Set("dry_run", "true")
	}

	var out Resolution
	if err := c.do(ctx, http.MethodPost, "/api/v1/workouts/duplicates/resolve", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendHAEPayload POSTs a Health Auto Export payload to the ingest endpoint.
// Retries up to 3 times with exponential backoff on failure.
func (c *Client) SendHAEPayload(ctx context.Context, payload models.HAEPayload, origin string) (*ingest.Result, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	params := url.Values{}
	if origin != "" {
		params.Set("origin", origin)
	}

	var result ingest.Result
	err = c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodPost, "/api/v1/ingest/", params, data, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) withRetry(ctx context.Context, call func() error) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		err := call()
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}
