package integration

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"interviewd/internal/config"
)

type ImageInput struct {
	MIMEType string
	Data     []byte
}

// GenerateRequest is one structured-output call to Gemini.
type GenerateRequest struct {
	Model          string
	SystemPrompt   string
	UserPrompt     string
	ResponseSchema any
	Images         []ImageInput
	Temperature    float32
}

// GeminiClient produces JSON text constrained by a response schema.
type GeminiClient interface {
	GenerateJSON(ctx context.Context, req GenerateRequest) (string, error)
}

type geminiClient struct {
	client *genai.Client
	cfg    config.GeminiConfig
	logger zerolog.Logger
}

func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, logger zerolog.Logger) (GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiClient{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (c *geminiClient) GenerateJSON(ctx context.Context, req GenerateRequest) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, req.Model, buildContents(req), buildConfig(req))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := result.Text()

	if result.UsageMetadata != nil {
		c.logger.Debug().
			Str("model", req.Model).
			Int32("prompt_tokens", result.UsageMetadata.PromptTokenCount).
			Int32("total_tokens", result.UsageMetadata.TotalTokenCount).
			Msg("Gemini call completed")
	}

	return text, nil
}

func buildConfig(req GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: &req.Temperature,
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = req.ResponseSchema
	}
	return cfg
}

func buildContents(req GenerateRequest) []*genai.Content {
	parts := []*genai.Part{{Text: req.UserPrompt}}
	for _, img := range req.Images {
		if len(img.Data) == 0 {
			continue
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	return []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: parts,
	}}
}
