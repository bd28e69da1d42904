package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"interviewd/internal/models"
)

func (h *Handler) analyzeFrame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID    string `json:"session_id"`
		AssessmentID string `json:"assessment_id"`
		Frame        string `json:"frame"`
		Timestamp    int64  `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SessionID == "" || req.Frame == "" {
		writeError(w, http.StatusBadRequest, "session_id and frame are required")
		return
	}

	if req.Timestamp == 0 {
		req.Timestamp = models.NowMillis()
	}

	result, err := h.classifier.Classify(r.Context(), models.ProctoringFrame{
		SessionID:    req.SessionID,
		AssessmentID: req.AssessmentID,
		Image:        req.Frame,
		CapturedAt:   req.Timestamp,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "analysis aborted")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// logViolation records a client-reported violation. Persistence failures are
// logged but never surfaced: losing one log line must not break the session.
func (h *Handler) logViolation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID    string `json:"session_id"`
		AssessmentID string `json:"assessment_id"`
		Type         string `json:"violation_type"`
		Severity     string `json:"severity"`
		Detail       string `json:"detail"`
		Timestamp    int64  `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Invalid violation payload")
		writeSuccess(w, nil)
		return
	}

	if req.Severity == "" {
		req.Severity = models.SeverityLow
	}
	if req.Timestamp == 0 {
		req.Timestamp = models.NowMillis()
	}

	violation := models.Violation{
		SessionID:    req.SessionID,
		AssessmentID: req.AssessmentID,
		Type:         req.Type,
		Severity:     req.Severity,
		Detail:       req.Detail,
		OccurredAt:   req.Timestamp,
	}

	if err := h.violations.Create(r.Context(), &violation); err != nil {
		h.logger.Warn().Err(err).
			Str("session_id", req.SessionID).
			Str("violation_type", req.Type).
			Msg("Failed to persist violation")
	}

	writeSuccess(w, nil)
}

func (h *Handler) listViolations(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	violations, err := h.violations.ListBySession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to list violations")
		writeError(w, http.StatusInternalServerError, "failed to list violations")
		return
	}

	if violations == nil {
		violations = []models.Violation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"violations": violations})
}
