package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
	"github.com/nvandessel/wingman/internal/service"
	"github.com/nvandessel/wingman/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ReloadResponse reports the outcome of a rules reload.
type ReloadResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Rules   *rules.Summary `json:"rules,omitempty"`
}

// HistoryResponse lists stored analyses.
type HistoryResponse struct {
	Records []store.Record `json:"records"`
	Count   int            `json:"count"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"rules_version": s.svc.Rules().Version,
	})
}

// analyze handles POST /api/v1/analyze
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if err := service.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := s.svc.Analyze(r.Context(), req)
	status := http.StatusOK
	if !out.Result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, out)
}

func (s *Server) rulesSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Rules())
}

// rulesScenarios handles GET /api/v1/rules/scenarios
func (s *Server) rulesScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Scenarios())
}

// rulesProfiles handles GET /api/v1/rules/profiles
func (s *Server) rulesProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": s.svc.Profiles()})
}

// reloadRules handles POST /api/v1/rules/reload
func (s *Server) reloadRules(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Reload(r.Context())
	switch {
	case errors.Is(err, service.ErrNoRulesPath):
		writeJSON(w, http.StatusConflict, ReloadResponse{Message: err.Error()})
	case errors.Is(err, rules.ErrInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, ReloadResponse{Message: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, ReloadResponse{Message: err.Error()})
	default:
		writeJSON(w, http.StatusOK, ReloadResponse{
			Success: true,
			Message: "Rules reloaded successfully",
			Rules:   &summary,
		})
	}
}

// listHistory handles GET /api/v1/history
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{SubjectName: r.URL.Query().Get("subject")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", v))
			return
		}
		opts.Limit = limit
	}

	records, err := s.svc.History(r.Context(), opts)
	if err != nil {
		s.historyError(w, err)
		return
	}
	// summaries only; fetch one record for the full result
	for i := range records {
		records[i].Result = nil
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Records: records, Count: len(records)})
}

// getHistory handles GET /api/v1/history/{id}
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	rec, err := s.svc.Record(r.Context(), id)
	if err != nil {
		s.historyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) historyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoStore):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("history lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history lookup failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
