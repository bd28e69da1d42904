package proctoring

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"interviewd/internal/models"
	"interviewd/internal/service/classifier"
)

// Stream is an acquired media stream. Capture borrows the current frame;
// StopTracks releases the underlying device.
type Stream interface {
	Capture() (string, bool)
	StopTracks()
}

// StreamSource acquires the candidate's media stream. Denial is fatal to the
// session.
type StreamSource interface {
	Acquire(ctx context.Context) (Stream, error)
}

// ViolationSink persists violations. Satisfied by the violation repository.
type ViolationSink interface {
	Create(ctx context.Context, v *models.Violation) error
}

type State int32

const (
	StateStarting State = iota
	StateActive
	StateError
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type SessionConfig struct {
	SessionID       string
	AssessmentID    string
	SampleInterval  time.Duration
	MediumThreshold int
	HighThreshold   int
}

// SessionController runs one proctored session: it owns the media stream,
// the frame sampler and the visibility watcher, keeps the ordered violation
// log, and applies the suspicion threshold policy to classifier results.
type SessionController struct {
	cfg         SessionConfig
	classifier  classifier.Client
	streams     StreamSource
	visibility  VisibilitySource
	sink        ViolationSink
	onViolation func(models.Violation)
	logger      zerolog.Logger

	state atomic.Int32
	// generation fences off classifier results that resolve after Stop
	gen atomic.Uint64

	mu         sync.Mutex
	violations []models.Violation
	stream     Stream
	sampler    *FrameSampler
	watcher    *VisibilityWatcher
}

func NewSessionController(cfg SessionConfig, cl classifier.Client, streams StreamSource, visibility VisibilitySource, sink ViolationSink, onViolation func(models.Violation), logger zerolog.Logger) *SessionController {
	c := &SessionController{
		cfg:         cfg,
		classifier:  cl,
		streams:     streams,
		visibility:  visibility,
		sink:        sink,
		onViolation: onViolation,
		logger:      logger,
	}
	c.state.Store(int32(StateStarting))
	return c
}

func (c *SessionController) State() State {
	return State(c.state.Load())
}

// Start acquires the media stream and begins sampling and visibility
// watching. A denied stream moves the session to the error state.
func (c *SessionController) Start(ctx context.Context) error {
	if c.State() != StateStarting {
		return fmt.Errorf("session already started, state %s", c.State())
	}

	stream, err := c.streams.Acquire(ctx)
	if err != nil {
		c.state.Store(int32(StateError))
		c.logger.Error().Err(err).Str("session_id", c.cfg.SessionID).Msg("Failed to acquire media stream")
		return fmt.Errorf("failed to acquire media stream: %w", err)
	}

	c.mu.Lock()
	c.stream = stream
	c.sampler = NewFrameSampler(c.cfg.SampleInterval, stream, c.cfg.SessionID, c.cfg.AssessmentID, c.handleFrame, c.logger)
	if c.visibility != nil {
		c.watcher = NewVisibilityWatcher(c.visibility, c.cfg.SessionID, c.cfg.AssessmentID, c.recordViolation, c.logger)
	}
	c.mu.Unlock()

	// Stop may land while the stream is being acquired; it wins
	if !c.state.CompareAndSwap(int32(StateStarting), int32(StateActive)) {
		stream.StopTracks()
		c.logger.Debug().Str("session_id", c.cfg.SessionID).Msg("Session stopped before activation")
		return nil
	}

	c.sampler.Start()
	if c.watcher != nil {
		c.watcher.Start()
	}

	c.logger.Info().Str("session_id", c.cfg.SessionID).Msg("Proctoring session active")
	return nil
}

func (c *SessionController) handleFrame(frame models.ProctoringFrame) {
	gen := c.gen.Load()

	go func() {
		result, err := c.classifier.Classify(context.Background(), frame)
		if err != nil {
			return
		}

		if c.gen.Load() != gen || c.State() != StateActive {
			c.logger.Debug().Str("session_id", c.cfg.SessionID).Msg("Discarding classification for stopped session")
			return
		}

		c.applyResult(result)
	}()
}

// applyResult escalates a classification to violations per the threshold
// policy: score above the high threshold is high severity, above the medium
// threshold is medium, anything else is ignored.
func (c *SessionController) applyResult(result models.ClassifierResult) {
	if len(result.Violations) > 0 {
		for _, v := range result.Violations {
			v.SessionID = c.cfg.SessionID
			v.AssessmentID = c.cfg.AssessmentID
			if v.OccurredAt == 0 {
				v.OccurredAt = models.NowMillis()
			}
			c.recordViolation(v)
		}
		return
	}

	score := result.SuspicionScore
	var severity string
	switch {
	case score > c.cfg.HighThreshold:
		severity = models.SeverityHigh
	case score > c.cfg.MediumThreshold:
		severity = models.SeverityMedium
	default:
		return
	}

	confidence := float64(score) / 100
	c.recordViolation(models.Violation{
		SessionID:    c.cfg.SessionID,
		AssessmentID: c.cfg.AssessmentID,
		Type:         fmt.Sprintf("suspicion_%d", score),
		Severity:     severity,
		Confidence:   &confidence,
		Detail:       strings.Join(result.Reasons, "; "),
		OccurredAt:   models.NowMillis(),
	})
}

// recordViolation appends to the ordered in-memory log, notifies the
// callback, and persists best-effort.
func (c *SessionController) recordViolation(v models.Violation) {
	c.mu.Lock()
	c.violations = append(c.violations, v)
	c.mu.Unlock()

	c.logger.Info().
		Str("session_id", v.SessionID).
		Str("violation_type", v.Type).
		Str("severity", v.Severity).
		Msg("Violation recorded")

	if c.onViolation != nil {
		c.onViolation(v)
	}

	if c.sink != nil {
		go func(v models.Violation) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.sink.Create(ctx, &v); err != nil {
				c.logger.Warn().Err(err).Str("violation_type", v.Type).Msg("Failed to persist violation")
			}
		}(v)
	}
}

// Violations returns a copy of the ordered violation log.
func (c *SessionController) Violations() []models.Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Violation, len(c.violations))
	copy(out, c.violations)
	return out
}

// Stop releases the media tracks and all timers. In-flight classifications
// are discarded once it returns. Safe to call more than once.
func (c *SessionController) Stop() {
	for {
		st := c.State()
		if st == StateStopped {
			return
		}
		if c.state.CompareAndSwap(int32(st), int32(StateStopped)) {
			break
		}
	}

	c.gen.Add(1)

	c.mu.Lock()
	stream, sampler, watcher := c.stream, c.sampler, c.watcher
	c.mu.Unlock()

	if stream != nil {
		stream.StopTracks()
	}
	if sampler != nil {
		sampler.Stop()
	}
	if watcher != nil {
		watcher.Stop()
	}

	c.logger.Info().Str("session_id", c.cfg.SessionID).Msg("Proctoring session stopped")
}
