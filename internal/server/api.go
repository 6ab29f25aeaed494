package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"readsum/internal/domain"
	"readsum/internal/logger"
	"readsum/internal/markdown"
	"readsum/internal/pipeline"
)

const maxRequestBytes = 1 << 16

type summaryRequest struct {
	URL string `json:"url"`
}

type snapshotResponse struct {
	pipeline.Snapshot

	ExtractedChars int    `json:"extractedChars"`
	SummaryHTML    string `json:"summaryHTML,omitempty"`
}

type runResponse struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	State          string    `json:"state"`
	ExtractedChars int       `json:"extractedChars"`
	Summary        string    `json:"summary,omitempty"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

func (s *Server) handleCreateSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session := pipeline.NewSession(nil)
	session.SetURL(req.URL)

	err := s.runner.Run(r.Context(), session)

	s.jsonResponse(w, runStatus(err), s.newSnapshotResponse(r.Context(), session.Snapshot()))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorResponse(w, http.StatusNotFound, "run history is disabled")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.history.ListRuns(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context(), s.log).ErrorContext(r.Context(), "Failed to list runs",
			"error", err,
			"limit", limit)

		s.errorResponse(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, newRunResponse(run))
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": resp})
}

func runStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, pipeline.ErrBusy):
		return http.StatusConflict
	case pipeline.IsValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) newSnapshotResponse(ctx context.Context, snap pipeline.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		Snapshot:       snap,
		ExtractedChars: snap.ExtractedChars(),
	}

	if snap.State == pipeline.StateDone {
		html, err := markdown.ToHTML(snap.Summary)
		if err != nil {
			logger.FromContext(ctx, s.log).WarnContext(ctx, "Failed to render summary",
				"error", err)
		}
		resp.SummaryHTML = html
	}

	return resp
}

func newRunResponse(run domain.Run) runResponse {
	return runResponse{
		ID:             run.ID,
		URL:            run.URL,
		Provider:       string(run.Provider),
		Model:          run.Model,
		State:          string(run.State),
		ExtractedChars: run.ExtractedChars,
		Summary:        run.Summary,
		Error:          run.Error,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response",
			"error", err,
			"status", status)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
