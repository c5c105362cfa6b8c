package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/claude/workoutkit/internal/dedup"
	"github.com/claude/workoutkit/internal/observability"
	"github.com/claude/workoutkit/internal/workout"
)

// errQuery marks search failures caused by storage rather than the request.
var errQuery = errors.New("querying workouts")

type duplicatesResponse struct {
	AppSource        string                 `json:"app_source"`
	ThresholdMinutes int                    `json:"threshold_minutes"`
	Groups           []dedup.DuplicateGroup `json:"groups"`
}

type resolveResponse struct {
	Preference string     `json:"prefer"`
	DryRun     bool       `json:"dry_run"`
	Plan       dedup.Plan `json:"plan"`
	Deleted    int64      `json:"deleted"`
}

// findGroups runs the duplicate search described by the request's query
// parameters: start, end, type, app_source and threshold.
func (s *Server) findGroups(r *http.Request) (duplicatesResponse, error) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		return duplicatesResponse{}, err
	}
	activity, err := parseActivityParam(r)
	if err != nil {
		return duplicatesResponse{}, err
	}

	resp := duplicatesResponse{
		AppSource:        s.opts.AppSource,
		ThresholdMinutes: s.threshold,
	}
	q := r.URL.Query()
	if v := q.Get("app_source"); v != "" {
		resp.AppSource = v
	}
	if v := q.Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return duplicatesResponse{}, fmt.Errorf("threshold must be a non-negative integer")
		}
		resp.ThresholdMinutes = n
	}

	records, err := s.db.QueryWorkouts(r.Context(), start, end, activity)
	if err != nil {
		return duplicatesResponse{}, fmt.Errorf("%w: %w", errQuery, err)
	}

	opts := []dedup.Option{dedup.WithThreshold(resp.ThresholdMinutes)}
	if activity != "" {
		t, _ := workout.ParseActivityType(activity)
		opts = append(opts, dedup.WithActivityType(t))
	}
	resp.Groups = dedup.FindDuplicates(records, resp.AppSource, opts...)
	if resp.Groups == nil {
		resp.Groups = []dedup.DuplicateGroup{}
	}
	observability.RecordDuplicateGroups(len(resp.Groups))
	return resp, nil
}

func (s *Server) handleFindDuplicates(w http.ResponseWriter, r *http.Request) {
	resp, err := s.findGroups(r)
	if err != nil {
		s.writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveDuplicates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pref, err := dedup.ParsePreference(q.Get("prefer"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	dryRun := false
	if v := q.Get("dry_run"); v != "" {
		if dryRun, err = strconv.ParseBool(v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dry_run must be a boolean"})
			return
		}
	}

	found, err := s.findGroups(r)
	if err != nil {
		s.writeSearchError(w, err)
		return
	}

	resp := resolveResponse{
		Preference: pref.String(),
		DryRun:     dryRun,
		Plan:       dedup.PlanCleanup(found.Groups, pref),
	}
	if !dryRun && len(resp.Plan.Discard) > 0 {
		resp.Deleted, err = s.db.DeleteWorkouts(r.Context(), resp.Plan.Discard)
		if err != nil {
			s.log.Error("deleting duplicates", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		observability.RecordDiscarded(resp.Deleted)
		s.log.Info("duplicates resolved",
			"prefer", resp.Preference,
			"groups", len(found.Groups),
			"deleted", resp.Deleted,
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeSearchError(w http.ResponseWriter, err error) {
	if errors.Is(err, errQuery) {
		s.log.Error("duplicate search", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}
