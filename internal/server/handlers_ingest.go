package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/workoutkit/internal/ingest"
	"github.com/claude/workoutkit/internal/models"
	"github.com/claude/workoutkit/internal/observability"
	"github.com/claude/workoutkit/internal/storage"
)

const (
	sourceHAE           = "hae"
	sourceHealthConnect = "healthconnect"
)

func (s *Server) handleHAEIngest(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var payload models.HAEPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.hae.Ingest(r.Context(), &payload, r.URL.Query().Get("origin"))
	s.finishIngest(r.Context(), w, sourceHAE, started, result, err)
}

func (s *Server) handleHealthConnectIngest(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var payload models.HCPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.healthConnect.Ingest(r.Context(), &payload)
	s.finishIngest(r.Context(), w, sourceHealthConnect, started, result, err)
}

// finishIngest records metrics and an ingest log row, then writes the response.
func (s *Server) finishIngest(ctx context.Context, w http.ResponseWriter, source string, started time.Time, result *ingest.Result, err error) {
	if result == nil {
		result = &ingest.Result{}
	}
	observability.RecordIngest(source, "inserted", result.WorkoutsInserted)
	observability.RecordIngest(source, "skipped", result.WorkoutsSkipped)
	observability.RecordIngest(source, "rejected", result.WorkoutsRejected)

	durationMs := int(time.Since(started).Milliseconds())
	entry := storage.IngestLog{
		Source:           source,
		Status:           "success",
		WorkoutsReceived: result.WorkoutsReceived,
		WorkoutsInserted: result.WorkoutsInserted,
		WorkoutsSkipped:  result.WorkoutsSkipped,
		DurationMs:       &durationMs,
	}
	if err != nil {
		msg := err.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	if _, logErr := s.db.InsertIngestLog(ctx, entry); logErr != nil {
		s.log.Warn("writing ingest log failed", "source", source, "error", logErr)
	}

	if err != nil {
		s.log.Error("ingest error", "source", source, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info("ingest complete",
		"source", source,
		"received", result.WorkoutsReceived,
		"inserted", result.WorkoutsInserted,
		"skipped", result.WorkoutsSkipped,
		"rejected", result.WorkoutsRejected,
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleIngestLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	logs, err := s.db.QueryIngestLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
