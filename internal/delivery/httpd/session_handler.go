package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"interviewd/internal/models"
	"interviewd/internal/service/proctoring"
)

// startSession opens a managed proctoring session for an assessment. Frames,
// visibility events, and diagram snapshots are pushed to it afterwards.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID    string `json:"session_id"`
		AssessmentID string `json:"assessment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := h.manager.StartSession(r.Context(), req.SessionID, req.AssessmentID); err != nil {
		if errors.Is(err, proctoring.ErrSessionExists) {
			writeError(w, http.StatusConflict, "session already active")
			return
		}
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to start session")
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	writeSuccess(w, map[string]any{
		"session_id": req.SessionID,
		"state":      proctoring.StateActive.String(),
	})
}

func (h *Handler) pushFrame(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	var req struct {
		Frame string `json:"frame"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Frame == "" {
		writeError(w, http.StatusBadRequest, "frame is required")
		return
	}

	if err := h.manager.PushFrame(sessionID, req.Frame); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeSuccess(w, nil)
}

func (h *Handler) pushVisibility(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	var req struct {
		Hidden bool `json:"hidden"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.manager.PushVisibility(sessionID, req.Hidden); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeSuccess(w, nil)
}

func (h *Handler) pushDiagram(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	var snap models.DiagramSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.manager.UpdateDiagram(sessionID, snap); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeSuccess(w, nil)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	state, violations, err := h.manager.SessionInfo(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeSuccess(w, map[string]any{
		"session_id": sessionID,
		"state":      state.String(),
		"violations": violations,
	})
}

// stopSession ends the session and returns the violation log collected over
// its lifetime.
func (h *Handler) stopSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	violations, err := h.manager.StopSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeSuccess(w, map[string]any{
		"session_id": sessionID,
		"state":      proctoring.StateStopped.String(),
		"violations": violations,
	})
}
