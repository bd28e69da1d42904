package proctoring

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"interviewd/internal/models"
	"interviewd/internal/service/classifier"
	"interviewd/internal/service/syncer"
)

var (
	ErrSessionExists   = errors.New("session already active")
	ErrSessionNotFound = errors.New("session not found")
)

type ManagerConfig struct {
	SampleInterval  time.Duration
	MediumThreshold int
	HighThreshold   int
	PollInterval    time.Duration
	AgentURL        string
}

// Manager runs the proctoring engine server-side: one SessionController per
// active interview, fed by frames and visibility events pushed over the API,
// plus a diagram change detector syncing to the agent channel when one is
// configured.
type Manager struct {
	cfg        ManagerConfig
	classifier classifier.Client
	sink       ViolationSink
	logger     zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	controller *SessionController
	stream     *pushStream
	visibility *pushVisibility
	diagram    *diagramState
	detector   *syncer.ChangeDetector
	channel    *syncer.Channel
}

func NewManager(cfg ManagerConfig, cl classifier.Client, sink ViolationSink, logger zerolog.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		classifier: cl,
		sink:       sink,
		logger:     logger,
		sessions:   make(map[string]*managedSession),
	}
}

func (m *Manager) StartSession(ctx context.Context, sessionID, assessmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; exists {
		return ErrSessionExists
	}

	session := &managedSession{
		stream:     &pushStream{},
		visibility: newPushVisibility(),
		diagram:    &diagramState{},
	}

	session.controller = NewSessionController(
		SessionConfig{
			SessionID:       sessionID,
			AssessmentID:    assessmentID,
			SampleInterval:  m.cfg.SampleInterval,
			MediumThreshold: m.cfg.MediumThreshold,
			HighThreshold:   m.cfg.HighThreshold,
		},
		m.classifier,
		pushStreamSource{stream: session.stream},
		session.visibility,
		m.sink,
		nil,
		m.logger,
	)

	if err := session.controller.Start(ctx); err != nil {
		return err
	}

	if m.cfg.AgentURL != "" {
		session.channel = syncer.NewChannel(m.cfg.AgentURL, m.logger)
		if err := session.channel.Connect(ctx); err != nil {
			// updates queue in the channel until a reconnect; the session runs on
			m.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Agent channel unavailable")
		}
		session.detector = syncer.NewChangeDetector(m.cfg.PollInterval, session.diagram.snapshot, session.channel, m.logger)
		session.detector.Start()
	}

	m.sessions[sessionID] = session

	m.logger.Info().
		Str("session_id", sessionID).
		Str("assessment_id", assessmentID).
		Msg("Proctoring session started")

	return nil
}

func (m *Manager) PushFrame(sessionID, image string) error {
	session, err := m.get(sessionID)
	if err != nil {
		return err
	}
	session.stream.Push(image)
	return nil
}

func (m *Manager) PushVisibility(sessionID string, hidden bool) error {
	session, err := m.get(sessionID)
	if err != nil {
		return err
	}
	session.visibility.Push(hidden)
	return nil
}

func (m *Manager) UpdateDiagram(sessionID string, snap models.DiagramSnapshot) error {
	session, err := m.get(sessionID)
	if err != nil {
		return err
	}
	session.diagram.set(snap)
	return nil
}

// SessionInfo reports the controller state and the ordered violation log.
func (m *Manager) SessionInfo(sessionID string) (State, []models.Violation, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return 0, nil, err
	}
	return session.controller.State(), session.controller.Violations(), nil
}

// StopSession tears the session down and returns its violation log.
func (m *Manager) StopSession(sessionID string) ([]models.Violation, error) {
	m.mu.Lock()
	session, exists := m.sessions[sessionID]
	if exists {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !exists {
		return nil, ErrSessionNotFound
	}

	m.teardown(sessionID, session)
	return session.controller.Violations(), nil
}

func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*managedSession)
	m.mu.Unlock()

	for id, session := range sessions {
		m.teardown(id, session)
	}
}

func (m *Manager) teardown(sessionID string, session *managedSession) {
	session.controller.Stop()
	if session.detector != nil {
		session.detector.Stop()
	}
	if session.channel != nil {
		if err := session.channel.Close(); err != nil {
			m.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to close agent channel")
		}
	}
}

func (m *Manager) get(sessionID string) (*managedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// pushStream adapts API-pushed frames to the sampler's Stream contract.
// Each pushed frame is captured at most once; a tick with nothing new is
// skipped like a missing track.
type pushStream struct {
	mu    sync.Mutex
	frame string
	fresh bool
}

func (s *pushStream) Push(image string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = image
	s.fresh = true
}

func (s *pushStream) Capture() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fresh {
		return "", false
	}
	s.fresh = false
	return s.frame, true
}

func (s *pushStream) StopTracks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = ""
	s.fresh = false
}

type pushStreamSource struct {
	stream *pushStream
}

func (s pushStreamSource) Acquire(ctx context.Context) (Stream, error) {
	return s.stream, nil
}

// pushVisibility adapts API-pushed visibility transitions to the watcher's
// channel contract. Non-blocking: a full buffer drops the event rather than
// stalling the API.
type pushVisibility struct {
	events chan bool
}

func newPushVisibility() *pushVisibility {
	return &pushVisibility{events: make(chan bool, 16)}
}

func (v *pushVisibility) Events() <-chan bool { return v.events }

func (v *pushVisibility) Push(hidden bool) {
	select {
	case v.events <- hidden:
	default:
	}
}

type diagramState struct {
	mu   sync.Mutex
	snap models.DiagramSnapshot
}

func (d *diagramState) set(snap models.DiagramSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap = snap
}

func (d *diagramState) snapshot() models.DiagramSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}
