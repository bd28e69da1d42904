package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"interviewd/internal/models"
	"interviewd/internal/service/integration"
)

const analyzerPrompt = `You are a proctoring analyst for remote technical interviews.
Analyze the attached webcam frame for signs of cheating or policy violations:
- more than one person visible
- no person visible at all
- the candidate looking away from the screen for a prolonged moment
- a phone or second device in use
- reading from notes or another screen

Respond with a suspicion score from 0 to 100 and short reasons.
0-30 means normal interview behavior, 31-60 means mildly suspicious,
61-100 means clearly suspicious.`

// Client analyzes a single webcam frame. Classification never fails the
// session: any transport or parse problem degrades to a zero-suspicion
// result and the next sampled frame is the retry.
type Client interface {
	Classify(ctx context.Context, frame models.ProctoringFrame) (models.ClassifierResult, error)
}

type client struct {
	gemini      integration.GeminiClient
	model       string
	temperature float32
	logger      zerolog.Logger
}

func New(gemini integration.GeminiClient, model string, temperature float32, logger zerolog.Logger) Client {
	return &client{
		gemini:      gemini,
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

func responseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suspicion_score": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": 100,
			},
			"reasons": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"suspicion_score", "reasons"},
	}
}

func fallbackResult() models.ClassifierResult {
	return models.ClassifierResult{
		SuspicionScore: 0,
		Reasons:        []string{"analysis failed"},
	}
}

func (c *client) Classify(ctx context.Context, frame models.ProctoringFrame) (models.ClassifierResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ClassifierResult{}, err
	}

	data, mimeType, ok := decodeDataURL(frame.Image)
	if !ok {
		c.logger.Warn().Str("session_id", frame.SessionID).Msg("Frame is not a valid data URL")
		return fallbackResult(), nil
	}

	text, err := c.gemini.GenerateJSON(ctx, integration.GenerateRequest{
		Model:          c.model,
		UserPrompt:     analyzerPrompt,
		ResponseSchema: responseSchema(),
		Images: []integration.ImageInput{
			{MIMEType: mimeType, Data: data},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("session_id", frame.SessionID).Msg("Frame analysis failed")
		return fallbackResult(), nil
	}

	var result models.ClassifierResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		c.logger.Warn().Err(err).Str("session_id", frame.SessionID).Msg("Failed to parse analysis response")
		return fallbackResult(), nil
	}

	if result.SuspicionScore < 0 {
		result.SuspicionScore = 0
	}
	if result.SuspicionScore > 100 {
		result.SuspicionScore = 100
	}
	if result.Reasons == nil {
		result.Reasons = []string{}
	}

	return result, nil
}

// decodeDataURL splits a "data:image/jpeg;base64,..." frame into raw bytes
// and its MIME type.
func decodeDataURL(dataURL string) ([]byte, string, bool) {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, "", false
	}

	meta, payload, found := strings.Cut(dataURL[len("data:"):], ",")
	if !found {
		return nil, "", false
	}

	mimeType, _, _ := strings.Cut(meta, ";")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}

	return data, mimeType, true
}
