package proctoring

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"interviewd/internal/models"
)

// FrameSource hands out the current webcam frame as a data-URL jpeg.
// ok is false when no active video track is available.
type FrameSource interface {
	Capture() (string, bool)
}

// FrameSampler emits one frame per interval to a single subscriber. It owns
// its ticker; Stop releases it and is safe to call more than once.
type FrameSampler struct {
	interval     time.Duration
	source       FrameSource
	emit         func(models.ProctoringFrame)
	sessionID    string
	assessmentID string
	logger       zerolog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewFrameSampler(interval time.Duration, source FrameSource, sessionID, assessmentID string, emit func(models.ProctoringFrame), logger zerolog.Logger) *FrameSampler {
	return &FrameSampler{
		interval:     interval,
		source:       source,
		emit:         emit,
		sessionID:    sessionID,
		assessmentID: assessmentID,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

func (s *FrameSampler) Start() {
	go s.loop()
}

func (s *FrameSampler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

// sample borrows one frame from the source. A missing frame skips the tick;
// the next tick is the retry.
func (s *FrameSampler) sample() {
	image, ok := s.source.Capture()
	if !ok {
		s.logger.Debug().Str("session_id", s.sessionID).Msg("No active video track, skipping tick")
		return
	}

	s.emit(models.ProctoringFrame{
		SessionID:    s.sessionID,
		AssessmentID: s.assessmentID,
		Image:        image,
		CapturedAt:   models.NowMillis(),
	})
}

func (s *FrameSampler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}
