package proctoring

import (
	"sync"

	"github.com/rs/zerolog"

	"interviewd/internal/models"
)

// VisibilitySource reports tab visibility transitions. A value of true means
// the tab just became hidden.
type VisibilitySource interface {
	Events() <-chan bool
}

// VisibilityWatcher emits exactly one tab_switch violation per transition to
// hidden. No debouncing: every hide counts.
type VisibilityWatcher struct {
	source       VisibilitySource
	emit         func(models.Violation)
	sessionID    string
	assessmentID string
	logger       zerolog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewVisibilityWatcher(source VisibilitySource, sessionID, assessmentID string, emit func(models.Violation), logger zerolog.Logger) *VisibilityWatcher {
	return &VisibilityWatcher{
		source:       source,
		emit:         emit,
		sessionID:    sessionID,
		assessmentID: assessmentID,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

func (w *VisibilityWatcher) Start() {
	go w.loop()
}

func (w *VisibilityWatcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case hidden, ok := <-w.source.Events():
			if !ok {
				return
			}
			if !hidden {
				continue
			}
			w.emit(models.Violation{
				SessionID:    w.sessionID,
				AssessmentID: w.assessmentID,
				Type:         models.ViolationTabSwitch,
				Severity:     models.SeverityLow,
				Detail:       "candidate switched away from the interview tab",
				OccurredAt:   models.NowMillis(),
			})
		}
	}
}

func (w *VisibilityWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}
