package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"interviewd/internal/repository"
	"interviewd/internal/service/classifier"
	"interviewd/internal/service/grading"
	"interviewd/internal/service/proctoring"
)

type Handler struct {
	classifier   classifier.Client
	manager      *proctoring.Manager
	violations   repository.ViolationRepository
	assessments  repository.AssessmentRepository
	results      repository.ResultRepository
	rabbit       repository.RabbitMQRepository
	orchestrator grading.Orchestrator
	logger       zerolog.Logger
}

func NewHandler(
	cl classifier.Client,
	manager *proctoring.Manager,
	violations repository.ViolationRepository,
	assessments repository.AssessmentRepository,
	results repository.ResultRepository,
	rabbit repository.RabbitMQRepository,
	orchestrator grading.Orchestrator,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		classifier:   cl,
		manager:      manager,
		violations:   violations,
		assessments:  assessments,
		results:      results,
		rabbit:       rabbit,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/proctoring", func(r chi.Router) {
			r.Post("/analyze", h.analyzeFrame)
			r.Post("/violation", h.logViolation)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", h.startSession)
				r.Route("/{session_id}", func(r chi.Router) {
					r.Get("/", h.getSession)
					r.Delete("/", h.stopSession)
					r.Post("/frames", h.pushFrame)
					r.Post("/visibility", h.pushVisibility)
					r.Post("/diagram", h.pushDiagram)
					r.Get("/violations", h.listViolations)
				})
			})
		})

		r.Post("/interviews/{assessment_id}/submit", h.submitInterview)

		r.Route("/gradings", func(r chi.Router) {
			r.Get("/{assessment_id}", h.getGrading)
			r.Post("/{assessment_id}", h.gradeNow)
		})
	})

	r.Get("/health", h.health)
	r.Get("/status", h.status)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "interviewd",
		"status":  "running",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeSuccess(w http.ResponseWriter, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["success"] = true
	writeJSON(w, http.StatusOK, data)
}
