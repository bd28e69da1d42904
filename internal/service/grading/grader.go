package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"interviewd/internal/models"
	"interviewd/internal/service/integration"
)

// Grader produces a structured grading result for one interview.
type Grader interface {
	GradeInterview(ctx context.Context, req models.GradingRequest) (*models.GradingResult, error)
}

type geminiGrader struct {
	gemini      integration.GeminiClient
	model       string
	temperature float32
	logger      zerolog.Logger
}

func NewGeminiGrader(gemini integration.GeminiClient, model string, temperature float32, logger zerolog.Logger) Grader {
	return &geminiGrader{
		gemini:      gemini,
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

func gradingSchema() map[string]any {
	score := map[string]any{"type": "number", "minimum": 0, "maximum": 10}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reliability":        score,
					"scalability":        score,
					"availability":       score,
					"communication":      score,
					"trade_off_analysis": score,
				},
				"required": []string{"reliability", "scalability", "availability", "communication", "trade_off_analysis"},
			},
			"overall_score": map[string]any{"type": "number"},
			"summary":       map[string]any{"type": "string"},
			"strengths": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"weaknesses": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"scores", "overall_score", "summary", "strengths", "weaknesses"},
	}
}

func (g *geminiGrader) GradeInterview(ctx context.Context, req models.GradingRequest) (*models.GradingResult, error) {
	text, err := g.gemini.GenerateJSON(ctx, integration.GenerateRequest{
		Model:          g.model,
		UserPrompt:     buildGradingPrompt(req),
		ResponseSchema: gradingSchema(),
		Temperature:    g.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("grading call failed: %w", err)
	}

	var result models.GradingResult
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse grading output: %w", err)
	}

	return &result, nil
}
