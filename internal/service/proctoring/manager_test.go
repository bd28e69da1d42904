package proctoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewd/internal/models"
)

type countingClassifier struct {
	mu     sync.Mutex
	result models.ClassifierResult
	calls  atomic.Int32
}

func (c *countingClassifier) Classify(ctx context.Context, frame models.ProctoringFrame) (models.ClassifierResult, error) {
	c.calls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, nil
}

func managerConfig(sampleInterval time.Duration) ManagerConfig {
	return ManagerConfig{
		SampleInterval:  sampleInterval,
		MediumThreshold: 30,
		HighThreshold:   60,
	}
}

func TestManagerSessionLifecycle(t *testing.T) {
	m := NewManager(managerConfig(time.Hour), &countingClassifier{}, nil, zerolog.Nop())

	require.NoError(t, m.StartSession(context.Background(), "s-1", "a-1"))
	assert.ErrorIs(t, m.StartSession(context.Background(), "s-1", "a-1"), ErrSessionExists)

	state, violations, err := m.SessionInfo("s-1")
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
	assert.Empty(t, violations)

	_, err = m.StopSession("s-1")
	require.NoError(t, err)
	_, err = m.StopSession("s-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// the id is free again after stop
	require.NoError(t, m.StartSession(context.Background(), "s-1", "a-1"))
	m.StopAll()
	_, _, err = m.SessionInfo("s-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerUnknownSession(t *testing.T) {
	m := NewManager(managerConfig(time.Hour), &countingClassifier{}, nil, zerolog.Nop())

	assert.ErrorIs(t, m.PushFrame("missing", "data:image/jpeg;base64,AAAA"), ErrSessionNotFound)
	assert.ErrorIs(t, m.PushVisibility("missing", true), ErrSessionNotFound)
	assert.ErrorIs(t, m.UpdateDiagram("missing", models.DiagramSnapshot{}), ErrSessionNotFound)
}

func TestManagerPushedFrameClassifiedOnce(t *testing.T) {
	cl := &countingClassifier{result: models.ClassifierResult{SuspicionScore: 75, Reasons: []string{"phone"}}}
	m := NewManager(managerConfig(5*time.Millisecond), cl, nil, zerolog.Nop())

	require.NoError(t, m.StartSession(context.Background(), "s-1", "a-1"))
	defer m.StopAll()

	require.NoError(t, m.PushFrame("s-1", "data:image/jpeg;base64,AAAA"))

	require.Eventually(t, func() bool {
		_, violations, err := m.SessionInfo("s-1")
		return err == nil && len(violations) == 1
	}, time.Second, time.Millisecond)

	_, violations, err := m.SessionInfo("s-1")
	require.NoError(t, err)
	assert.Equal(t, "suspicion_75", violations[0].Type)
	assert.Equal(t, models.SeverityHigh, violations[0].Severity)

	// ticks with no new frame must not re-classify the same image
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, cl.calls.Load())
}

func TestManagerVisibilityEvents(t *testing.T) {
	m := NewManager(managerConfig(time.Hour), &countingClassifier{}, nil, zerolog.Nop())

	require.NoError(t, m.StartSession(context.Background(), "s-1", "a-1"))
	defer m.StopAll()

	require.NoError(t, m.PushVisibility("s-1", true))
	require.NoError(t, m.PushVisibility("s-1", false))
	require.NoError(t, m.PushVisibility("s-1", true))

	require.Eventually(t, func() bool {
		_, violations, err := m.SessionInfo("s-1")
		return err == nil && len(violations) == 2
	}, time.Second, time.Millisecond)

	_, violations, _ := m.SessionInfo("s-1")
	for _, v := range violations {
		assert.Equal(t, models.ViolationTabSwitch, v.Type)
		assert.Equal(t, "a-1", v.AssessmentID)
	}
}

func TestManagerDiagramSyncedToAgent(t *testing.T) {
	received := make(chan string, 16)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg.Text
		}
	}))
	defer server.Close()

	cfg := managerConfig(time.Hour)
	cfg.PollInterval = 5 * time.Millisecond
	cfg.AgentURL = "ws" + strings.TrimPrefix(server.URL, "http")

	m := NewManager(cfg, &countingClassifier{}, nil, zerolog.Nop())
	require.NoError(t, m.StartSession(context.Background(), "s-1", "a-1"))
	defer m.StopAll()

	require.NoError(t, m.UpdateDiagram("s-1", models.DiagramSnapshot{
		Nodes: []models.DiagramNode{{ID: "n1", Type: "database"}},
	}))

	select {
	case text := <-received:
		assert.Contains(t, text, `"database"`)
	case <-time.After(time.Second):
		t.Fatal("diagram update never reached the agent")
	}
}
