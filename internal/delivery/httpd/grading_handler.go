package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"interviewd/internal/models"
	"interviewd/internal/service/grading"
)

func (h *Handler) getGrading(w http.ResponseWriter, r *http.Request) {
	assessmentID := chi.URLParam(r, "assessment_id")

	result, err := h.results.GetByAssessment(r.Context(), assessmentID)
	if err != nil {
		h.logger.Error().Err(err).Str("assessment_id", assessmentID).Msg("Failed to load grading result")
		writeError(w, http.StatusInternalServerError, "failed to load grading result")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "grading result not found")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// gradeNow runs the grading pipeline synchronously instead of waiting for
// the queued event.
func (h *Handler) gradeNow(w http.ResponseWriter, r *http.Request) {
	assessmentID := chi.URLParam(r, "assessment_id")

	var req struct {
		ConversationID string                 `json:"conversation_id"`
		Diagram        models.DiagramSnapshot `json:"diagram"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orchestrator.Grade(r.Context(), assessmentID, req.ConversationID, req.Diagram)
	if err != nil {
		h.handleGradingError(w, assessmentID, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGradingError(w http.ResponseWriter, assessmentID string, err error) {
	switch {
	case errors.Is(err, grading.ErrAssessmentNotFound):
		writeError(w, http.StatusNotFound, "assessment not found")
	case errors.Is(err, grading.ErrProblemNotFound):
		writeError(w, http.StatusNotFound, "problem not found")
	case errors.Is(err, grading.ErrInvalidOutput):
		h.logger.Error().Err(err).Str("assessment_id", assessmentID).Msg("Grading output rejected")
		writeError(w, http.StatusBadGateway, "grading output rejected")
	default:
		h.logger.Error().Err(err).Str("assessment_id", assessmentID).Msg("Grading failed")
		writeError(w, http.StatusInternalServerError, "grading failed")
	}
}
