package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"interviewd/internal/models"
	"interviewd/internal/repository"
	"interviewd/internal/service/grading"
)

// permanentError marks failures that a redelivery cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}

func isPermanentError(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// GradingWorker consumes interview.completed events and runs the grading
// pipeline for each.
type GradingWorker struct {
	rabbit       repository.RabbitMQRepository
	orchestrator grading.Orchestrator
	pool         *WorkerPool
	queue        string
	logger       zerolog.Logger
}

func NewGradingWorker(rabbit repository.RabbitMQRepository, orchestrator grading.Orchestrator, pool *WorkerPool, queue string, logger zerolog.Logger) *GradingWorker {
	return &GradingWorker{
		rabbit:       rabbit,
		orchestrator: orchestrator,
		pool:         pool,
		queue:        queue,
		logger:       logger,
	}
}

func (w *GradingWorker) Start(ctx context.Context) error {
	deliveries, err := w.rabbit.Consume(ctx, w.queue, "grading-worker")
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go w.processMessages(ctx, deliveries)

	w.logger.Info().Str("queue", w.queue).Msg("Grading worker started")
	return nil
}

func (w *GradingWorker) processMessages(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn().Msg("Delivery channel closed")
				return
			}
			w.pool.Submit(func() {
				w.handleDelivery(ctx, delivery)
			})
		}
	}
}

func (w *GradingWorker) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	if err := w.handle(ctx, delivery.Body); err != nil {
		if isPermanentError(err) {
			w.logger.Error().Err(err).Msg("Dropping unprocessable event")
			if nackErr := delivery.Nack(false, false); nackErr != nil {
				w.logger.Error().Err(nackErr).Msg("Failed to nack message")
			}
			return
		}

		w.logger.Warn().Err(err).Msg("Grading failed, requeueing event")
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			w.logger.Error().Err(nackErr).Msg("Failed to nack message")
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		w.logger.Error().Err(err).Msg("Failed to ack message")
	}
}

func (w *GradingWorker) handle(ctx context.Context, body []byte) error {
	var event models.InterviewCompletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}
	if event.AssessmentID == "" {
		return permanent(errors.New("event missing assessment_id"))
	}

	var diagram models.DiagramSnapshot
	if len(event.Diagram) > 0 {
		if err := json.Unmarshal(event.Diagram, &diagram); err != nil {
			return permanent(fmt.Errorf("failed to unmarshal diagram: %w", err))
		}
	}

	w.logger.Info().Str("assessment_id", event.AssessmentID).Msg("Grading submitted interview")

	_, err := w.orchestrator.Grade(ctx, event.AssessmentID, event.ConversationID, diagram)
	if err != nil {
		if errors.Is(err, grading.ErrAssessmentNotFound) ||
			errors.Is(err, grading.ErrProblemNotFound) ||
			errors.Is(err, grading.ErrInvalidOutput) {
			return permanent(err)
		}
		return err
	}

	return nil
}
