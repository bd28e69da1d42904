package proctoring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewd/internal/models"
)

type stubStream struct {
	image   string
	stopped atomic.Bool
}

func (s *stubStream) Capture() (string, bool) { return s.image, true }
func (s *stubStream) StopTracks()             { s.stopped.Store(true) }

type stubStreamSource struct {
	stream *stubStream
	err    error
}

func (s *stubStreamSource) Acquire(ctx context.Context) (Stream, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.stream, nil
}

type stubClassifier struct {
	mu      sync.Mutex
	result  models.ClassifierResult
	release chan struct{}
}

func (c *stubClassifier) Classify(ctx context.Context, frame models.ProctoringFrame) (models.ClassifierResult, error) {
	if c.release != nil {
		<-c.release
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, nil
}

type countingSink struct {
	calls atomic.Int32
}

func (s *countingSink) Create(ctx context.Context, v *models.Violation) error {
	s.calls.Add(1)
	return nil
}

func sessionConfig() SessionConfig {
	return SessionConfig{
		SessionID:       "s-1",
		AssessmentID:    "a-1",
		SampleInterval:  time.Hour,
		MediumThreshold: 30,
		HighThreshold:   60,
	}
}

func TestSessionStartDenied(t *testing.T) {
	source := &stubStreamSource{err: errors.New("permission denied")}
	c := NewSessionController(sessionConfig(), &stubClassifier{}, source, nil, nil, nil, zerolog.Nop())

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, c.State())
}

func TestSessionStateTransitions(t *testing.T) {
	stream := &stubStream{image: "data:image/jpeg;base64,AAAA"}
	c := NewSessionController(sessionConfig(), &stubClassifier{}, &stubStreamSource{stream: stream}, nil, nil, nil, zerolog.Nop())

	assert.Equal(t, StateStarting, c.State())
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateActive, c.State())

	c.Stop()
	assert.Equal(t, StateStopped, c.State())
	assert.True(t, stream.stopped.Load(), "media tracks released on stop")

	c.Stop() // idempotent
	assert.Equal(t, StateStopped, c.State())
}

func TestThresholdPolicy(t *testing.T) {
	tests := []struct {
		score        int
		wantSeverity string
		wantType     string
	}{
		{score: 75, wantSeverity: models.SeverityHigh, wantType: "suspicion_75"},
		{score: 61, wantSeverity: models.SeverityHigh, wantType: "suspicion_61"},
		{score: 60, wantSeverity: models.SeverityMedium, wantType: "suspicion_60"},
		{score: 45, wantSeverity: models.SeverityMedium, wantType: "suspicion_45"},
		{score: 31, wantSeverity: models.SeverityMedium, wantType: "suspicion_31"},
		{score: 30, wantSeverity: ""},
		{score: 0, wantSeverity: ""},
	}

	for _, tt := range tests {
		c := NewSessionController(sessionConfig(), &stubClassifier{}, &stubStreamSource{stream: &stubStream{}}, nil, nil, nil, zerolog.Nop())

		c.applyResult(models.ClassifierResult{SuspicionScore: tt.score, Reasons: []string{"test"}})

		violations := c.Violations()
		if tt.wantSeverity == "" {
			assert.Empty(t, violations, "score %d must not escalate", tt.score)
			continue
		}

		require.Len(t, violations, 1, "score %d", tt.score)
		assert.Equal(t, tt.wantType, violations[0].Type)
		assert.Equal(t, tt.wantSeverity, violations[0].Severity)
		assert.Equal(t, "s-1", violations[0].SessionID)
	}
}

func TestTypedViolationsRecorded(t *testing.T) {
	c := NewSessionController(sessionConfig(), &stubClassifier{}, &stubStreamSource{stream: &stubStream{}}, nil, nil, nil, zerolog.Nop())

	c.applyResult(models.ClassifierResult{
		Violations: []models.Violation{
			{Type: models.ViolationPhoneVisible, Severity: models.SeverityHigh},
			{Type: models.ViolationNoFace, Severity: models.SeverityMedium},
		},
	})

	violations := c.Violations()
	require.Len(t, violations, 2)
	assert.Equal(t, models.ViolationPhoneVisible, violations[0].Type)
	assert.Equal(t, "s-1", violations[0].SessionID)
	assert.Equal(t, "a-1", violations[0].AssessmentID)
	assert.NotZero(t, violations[0].OccurredAt)
}

func TestStopDiscardsLateClassification(t *testing.T) {
	release := make(chan struct{})
	cl := &stubClassifier{
		result:  models.ClassifierResult{SuspicionScore: 90, Reasons: []string{"phone"}},
		release: release,
	}
	stream := &stubStream{image: "data:image/jpeg;base64,AAAA"}
	c := NewSessionController(sessionConfig(), cl, &stubStreamSource{stream: stream}, nil, nil, nil, zerolog.Nop())

	require.NoError(t, c.Start(context.Background()))

	// classification in flight when the session stops
	c.handleFrame(models.ProctoringFrame{SessionID: "s-1", Image: stream.image})
	c.Stop()
	close(release)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.Violations(), "results resolving after stop are discarded")
}

type blockingStreamSource struct {
	stream  *stubStream
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStreamSource) Acquire(ctx context.Context) (Stream, error) {
	close(s.entered)
	<-s.release
	return s.stream, nil
}

func TestStopDuringStartWins(t *testing.T) {
	stream := &stubStream{image: "data:image/jpeg;base64,AAAA"}
	source := &blockingStreamSource{
		stream:  stream,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewSessionController(sessionConfig(), &stubClassifier{}, source, nil, nil, nil, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background()) }()

	// stop lands while the stream is still being acquired
	<-source.entered
	c.Stop()
	close(source.release)

	require.NoError(t, <-done)
	assert.Equal(t, StateStopped, c.State(), "stop must not be overwritten by a late activation")
	assert.True(t, stream.stopped.Load(), "acquired tracks released when stop won")
}

func TestSessionTabSwitches(t *testing.T) {
	visibility := &channelVisibility{events: make(chan bool, 8)}
	sink := &countingSink{}
	stream := &stubStream{image: "data:image/jpeg;base64,AAAA"}
	c := NewSessionController(sessionConfig(), &stubClassifier{}, &stubStreamSource{stream: stream}, visibility, sink, nil, zerolog.Nop())

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	visibility.events <- true
	visibility.events <- false
	visibility.events <- true

	require.Eventually(t, func() bool { return len(c.Violations()) == 2 },
		time.Second, time.Millisecond)

	for _, v := range c.Violations() {
		assert.Equal(t, models.ViolationTabSwitch, v.Type)
		assert.Equal(t, models.SeverityLow, v.Severity)
	}

	require.Eventually(t, func() bool { return sink.calls.Load() == 2 },
		time.Second, time.Millisecond, "tab switches are persisted best-effort")
}
