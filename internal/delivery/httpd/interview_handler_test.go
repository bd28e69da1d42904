package httpd

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewd/internal/models"
	"interviewd/internal/service/grading"
)

func TestSubmitInterviewPublishesOnce(t *testing.T) {
	env := newTestEnv()
	defer env.server.Close()
	env.assessments.assessment = &models.Assessment{ID: "a-1", ProblemID: "p-1"}

	body := map[string]any{
		"status":          "completed",
		"duration_secs":   1800,
		"conversation_id": "conv-1",
		"diagram":         map[string]any{"nodes": []any{}, "edges": []any{}},
	}

	resp := postJSON(t, env.server.URL+"/api/v1/interviews/a-1/submit", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["success"])

	require.Len(t, env.rabbit.published, 1)
	event := env.rabbit.published[0]
	assert.Equal(t, "a-1", event.AssessmentID)
	assert.Equal(t, "conv-1", event.ConversationID)
	assert.Equal(t, 1800, event.DurationSecs)

	// second submit: still success, nothing republished
	resp = postJSON(t, env.server.URL+"/api/v1/interviews/a-1/submit", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["success"])
	assert.Len(t, env.rabbit.published, 1)
}

func TestSubmitInterviewUnknownAssessment(t *testing.T) {
	env := newTestEnv()
	defer env.server.Close()

	resp := postJSON(t, env.server.URL+"/api/v1/interviews/missing/submit", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, env.rabbit.published)
	resp.Body.Close()
}

func TestGetGrading(t *testing.T) {
	env := newTestEnv()
	defer env.server.Close()

	resp, err := http.Get(env.server.URL + "/api/v1/gradings/a-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	overall := 7.4
	env.results.result = &models.GradingResult{AssessmentID: "a-1", OverallScore: overall, Summary: "ok"}

	resp, err = http.Get(env.server.URL + "/api/v1/gradings/a-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, overall, body["overall_score"])
}

func TestGradeNowErrorMapping(t *testing.T) {
	env := newTestEnv()
	defer env.server.Close()

	env.orchestrator.err = grading.ErrAssessmentNotFound
	resp := postJSON(t, env.server.URL+"/api/v1/gradings/a-1", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	env.orchestrator.err = grading.ErrInvalidOutput
	resp = postJSON(t, env.server.URL+"/api/v1/gradings/a-1", map[string]any{})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()
}
