package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// TranscriptClient fetches the finished conversation transcript from the
// voice-agent provider.
type TranscriptClient interface {
	FetchTranscript(ctx context.Context, conversationID string) (string, error)
}

type transcriptClient struct {
	baseURL     string
	apiKey      string
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client
	logger      zerolog.Logger
}

func NewTranscriptClient(baseURL, apiKey string, maxAttempts int, retryDelay time.Duration, logger zerolog.Logger) TranscriptClient {
	return &transcriptClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type transcriptTurn struct {
	Role           string  `json:"role"`
	Message        string  `json:"message"`
	TimeInCallSecs float64 `json:"time_in_call_secs"`
}

type conversationResponse struct {
	Status     string           `json:"status"`
	Transcript []transcriptTurn `json:"transcript"`
}

var errTranscriptNotReady = errors.New("transcript not ready")

// FetchTranscript polls until the provider has transcript turns. An empty
// turn list means the transcript is still being produced; after the attempt
// budget is exhausted the caller proceeds with an empty transcript.
func (c *transcriptClient) FetchTranscript(ctx context.Context, conversationID string) (string, error) {
	var transcript string

	operation := func() error {
		text, err := c.fetchOnce(ctx, conversationID)
		if err != nil {
			if errors.Is(err, errTranscriptNotReady) {
				return err
			}
			return backoff.Permanent(err)
		}
		transcript = text
		return nil
	}

	policy := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(c.retryDelay),
		uint64(c.maxAttempts-1),
	)

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		if errors.Is(err, errTranscriptNotReady) {
			c.logger.Warn().
				Str("conversation_id", conversationID).
				Int("attempts", c.maxAttempts).
				Msg("Transcript still empty after retries, proceeding without it")
			return "", nil
		}
		return "", err
	}

	return transcript, nil
}

func (c *transcriptClient) fetchOnce(ctx context.Context, conversationID string) (string, error) {
	url := fmt.Sprintf("%s/v1/convai/conversations/%s", c.baseURL, conversationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch conversation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("conversation fetch returned status %d", resp.StatusCode)
	}

	var conv conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		return "", fmt.Errorf("failed to decode conversation: %w", err)
	}

	if len(conv.Transcript) == 0 {
		return "", errTranscriptNotReady
	}

	var sb strings.Builder
	for _, turn := range conv.Transcript {
		if turn.Message == "" {
			continue
		}
		fmt.Fprintf(&sb, "[%s]: %s\n", turn.Role, turn.Message)
	}

	return strings.TrimSuffix(sb.String(), "\n"), nil
}
