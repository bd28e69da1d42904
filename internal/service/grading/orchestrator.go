package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"interviewd/internal/models"
	"interviewd/internal/repository"
	"interviewd/internal/service/integration"
)

var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrProblemNotFound    = errors.New("problem not found")
	ErrInvalidOutput      = errors.New("invalid grading output")
)

// AuditArchiver stores the audit bundle of a completed grading run.
type AuditArchiver interface {
	ArchiveGradingAudit(ctx context.Context, assessmentID string, payload []byte) error
}

type Orchestrator interface {
	Grade(ctx context.Context, assessmentID, conversationID string, diagram models.DiagramSnapshot) (*models.GradingResult, error)
}

type orchestrator struct {
	assessments repository.AssessmentRepository
	results     repository.ResultRepository
	transcripts integration.TranscriptClient
	grader      Grader
	archiver    AuditArchiver
	logger      zerolog.Logger
}

func NewOrchestrator(
	assessments repository.AssessmentRepository,
	results repository.ResultRepository,
	transcripts integration.TranscriptClient,
	grader Grader,
	archiver AuditArchiver,
	logger zerolog.Logger,
) Orchestrator {
	return &orchestrator{
		assessments: assessments,
		results:     results,
		transcripts: transcripts,
		grader:      grader,
		archiver:    archiver,
		logger:      logger,
	}
}

// Grade runs the full pipeline for one submitted interview: problem context,
// transcript, diagram normalization, injection check, model call, validation,
// and a single persisted result per assessment.
func (o *orchestrator) Grade(ctx context.Context, assessmentID, conversationID string, diagram models.DiagramSnapshot) (*models.GradingResult, error) {
	assessment, err := o.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment == nil {
		return nil, ErrAssessmentNotFound
	}

	problem, err := o.assessments.GetProblem(ctx, assessment.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load problem: %w", err)
	}
	if problem == nil {
		return nil, ErrProblemNotFound
	}

	if conversationID == "" {
		conversationID = assessment.ConversationID
	}

	transcript := o.fetchTranscript(ctx, assessmentID, conversationID)
	normalized := NormalizeDiagram(diagram)

	var result *models.GradingResult
	if phrase, found := DetectPromptInjection(transcript); found {
		o.logger.Warn().
			Str("assessment_id", assessmentID).
			Str("phrase", phrase).
			Msg("Prompt injection detected, invalidating interview")
		invalidated := InvalidatedResult(assessmentID)
		result = &invalidated
	} else {
		result, err = o.grader.GradeInterview(ctx, models.GradingRequest{
			AssessmentID:       assessmentID,
			ProblemDescription: problem.Description,
			Rubric:             problem.Rubric,
			Transcript:         transcript,
			Diagram:            normalized,
		})
		if err != nil {
			return nil, err
		}
		if err := ValidateResult(result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}

	result.AssessmentID = assessmentID
	result.OverallScore = OverallScore(result.Scores)
	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.Weaknesses == nil {
		result.Weaknesses = []string{}
	}

	record := &models.GradingRecord{
		AssessmentID: assessmentID,
		Result:       *result,
		Transcript:   transcript,
		Diagram:      normalized,
		CreatedAt:    time.Now().UTC(),
	}

	inserted, err := o.results.Insert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to persist grading result: %w", err)
	}
	if !inserted {
		o.logger.Info().Str("assessment_id", assessmentID).Msg("Assessment already graded, keeping existing result")
		return result, nil
	}

	if err := o.assessments.MarkGraded(ctx, assessmentID); err != nil {
		o.logger.Warn().Err(err).Str("assessment_id", assessmentID).Msg("Failed to update assessment status")
	}

	o.archive(ctx, record)

	o.logger.Info().
		Str("assessment_id", assessmentID).
		Float64("overall_score", result.OverallScore).
		Msg("Grading completed")

	return result, nil
}

// fetchTranscript degrades to an empty transcript on every failure mode so
// grading can always proceed.
func (o *orchestrator) fetchTranscript(ctx context.Context, assessmentID, conversationID string) string {
	if conversationID == "" {
		o.logger.Warn().Str("assessment_id", assessmentID).Msg("No conversation id, grading without transcript")
		return ""
	}

	transcript, err := o.transcripts.FetchTranscript(ctx, conversationID)
	if err != nil {
		o.logger.Warn().Err(err).
			Str("assessment_id", assessmentID).
			Str("conversation_id", conversationID).
			Msg("Transcript fetch failed, grading without transcript")
		return ""
	}

	return transcript
}

func (o *orchestrator) archive(ctx context.Context, record *models.GradingRecord) {
	if o.archiver == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"assessment_id": record.AssessmentID,
		"result":        record.Result,
		"transcript":    record.Transcript,
		"diagram":       record.Diagram,
		"graded_at":     record.CreatedAt,
	})
	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to build audit bundle")
		return
	}

	if err := o.archiver.ArchiveGradingAudit(ctx, record.AssessmentID, payload); err != nil {
		o.logger.Warn().Err(err).Str("assessment_id", record.AssessmentID).Msg("Failed to archive grading audit")
	}
}
