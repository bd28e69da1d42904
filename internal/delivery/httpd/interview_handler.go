package httpd

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"interviewd/internal/models"
)

// submitInterview completes an assessment and queues it for grading. The
// endpoint is idempotent: only the first submission publishes the
// interview.completed event.
func (h *Handler) submitInterview(w http.ResponseWriter, r *http.Request) {
	assessmentID := chi.URLParam(r, "assessment_id")

	var req struct {
		Status         string          `json:"status"`
		EndedAt        time.Time       `json:"ended_at"`
		DurationSecs   int             `json:"duration_secs"`
		ConversationID string          `json:"conversation_id"`
		Diagram        json.RawMessage `json:"diagram"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assessment, err := h.assessments.GetByID(r.Context(), assessmentID)
	if err != nil {
		h.logger.Error().Err(err).Str("assessment_id", assessmentID).Msg("Failed to load assessment")
		writeError(w, http.StatusInternalServerError, "failed to load assessment")
		return
	}
	if assessment == nil {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}

	if req.EndedAt.IsZero() {
		req.EndedAt = time.Now().UTC()
	}

	first, err := h.assessments.MarkSubmitted(r.Context(), assessmentID, req.EndedAt, req.DurationSecs, req.ConversationID)
	if err != nil {
		h.logger.Error().Err(err).Str("assessment_id", assessmentID).Msg("Failed to mark assessment submitted")
		writeError(w, http.StatusInternalServerError, "failed to submit interview")
		return
	}

	if !first {
		h.logger.Info().Str("assessment_id", assessmentID).Msg("Interview already submitted")
		writeSuccess(w, map[string]any{
			"assessment_id": assessmentID,
			"status":        models.AssessmentCompleted,
		})
		return
	}

	event := models.InterviewCompletedEvent{
		AssessmentID:   assessmentID,
		ConversationID: req.ConversationID,
		Diagram:        req.Diagram,
		EndedAt:        req.EndedAt,
		DurationSecs:   req.DurationSecs,
		Timestamp:      time.Now().UTC(),
	}
	if err := h.rabbit.PublishInterviewCompleted(r.Context(), event); err != nil {
		h.logger.Error().Err(err).Str("assessment_id", assessmentID).Msg("Failed to publish interview.completed")
		writeError(w, http.StatusInternalServerError, "failed to queue grading")
		return
	}

	h.logger.Info().Str("assessment_id", assessmentID).Msg("Interview submitted, grading queued")

	writeSuccess(w, map[string]any{
		"assessment_id": assessmentID,
		"status":        models.AssessmentCompleted,
	})
}
