package httpd

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"interviewd/internal/models"
	"interviewd/internal/service/proctoring"
)

type fakeClassifier struct {
	result models.ClassifierResult
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, frame models.ProctoringFrame) (models.ClassifierResult, error) {
	f.calls++
	return f.result, nil
}

type fakeViolations struct {
	mu      sync.Mutex
	created []models.Violation
	err     error
}

func (f *fakeViolations) Create(ctx context.Context, v *models.Violation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *v)
	return nil
}

func (f *fakeViolations) ListBySession(ctx context.Context, sessionID string) ([]models.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, nil
}

type fakeAssessments struct {
	assessment  *models.Assessment
	submitted   int
	alreadyDone bool
}

func (f *fakeAssessments) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	if f.assessment != nil && f.assessment.ID == id {
		return f.assessment, nil
	}
	return nil, nil
}

func (f *fakeAssessments) GetProblem(ctx context.Context, problemID string) (*models.Problem, error) {
	return nil, nil
}

func (f *fakeAssessments) MarkSubmitted(ctx context.Context, id string, endedAt time.Time, durationSecs int, conversationID string) (bool, error) {
	f.submitted++
	if f.alreadyDone {
		return false, nil
	}
	f.alreadyDone = true
	return true, nil
}

func (f *fakeAssessments) MarkGraded(ctx context.Context, id string) error { return nil }

type fakeResults struct {
	result *models.GradingResult
}

func (f *fakeResults) Insert(ctx context.Context, rec *models.GradingRecord) (bool, error) {
	return true, nil
}

func (f *fakeResults) GetByAssessment(ctx context.Context, assessmentID string) (*models.GradingResult, error) {
	return f.result, nil
}

type fakeRabbit struct {
	mu        sync.Mutex
	published []models.InterviewCompletedEvent
	err       error
}

func (f *fakeRabbit) Publish(ctx context.Context, exchange, routingKey string, message []byte) error {
	return f.err
}

func (f *fakeRabbit) PublishInterviewCompleted(ctx context.Context, event models.InterviewCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakeRabbit) Consume(ctx context.Context, queue, consumer string) (<-chan amqp.Delivery, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRabbit) SetupQueue(exchange, queue, routingKey string) error { return nil }
func (f *fakeRabbit) Close() error                                       { return nil }

type fakeOrchestrator struct {
	result *models.GradingResult
	err    error
}

func (f *fakeOrchestrator) Grade(ctx context.Context, assessmentID, conversationID string, diagram models.DiagramSnapshot) (*models.GradingResult, error) {
	return f.result, f.err
}

type testEnv struct {
	classifier   *fakeClassifier
	manager      *proctoring.Manager
	violations   *fakeViolations
	assessments  *fakeAssessments
	results      *fakeResults
	rabbit       *fakeRabbit
	orchestrator *fakeOrchestrator
	server       *httptest.Server
}

func newTestEnv() *testEnv {
	env := &testEnv{
		classifier:   &fakeClassifier{},
		violations:   &fakeViolations{},
		assessments:  &fakeAssessments{},
		results:      &fakeResults{},
		rabbit:       &fakeRabbit{},
		orchestrator: &fakeOrchestrator{},
	}
	env.manager = proctoring.NewManager(proctoring.ManagerConfig{
		SampleInterval:  time.Hour,
		MediumThreshold: 30,
		HighThreshold:   60,
	}, env.classifier, env.violations, zerolog.Nop())

	handler := NewHandler(env.classifier, env.manager, env.violations, env.assessments, env.results, env.rabbit, env.orchestrator, zerolog.Nop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	env.server = httptest.NewServer(router)

	return env
}
