package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"interviewd/internal/models"
)

type AssessmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Assessment, error)
	GetProblem(ctx context.Context, problemID string) (*models.Problem, error)
	MarkSubmitted(ctx context.Context, id string, endedAt time.Time, durationSecs int, conversationID string) (bool, error)
	MarkGraded(ctx context.Context, id string) error
}

type assessmentRepository struct {
	*PostgresRepository
}

func NewAssessmentRepository(db *sql.DB, logger zerolog.Logger) AssessmentRepository {
	return &assessmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *assessmentRepository) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	query := `
		SELECT id, problem_id, candidate_email, conversation_id, status,
		       ended_at, duration_secs, created_at, updated_at
		FROM assessments
		WHERE id = $1`

	var (
		a              models.Assessment
		conversationID sql.NullString
		endedAt        sql.NullTime
		durationSecs   sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ProblemID, &a.CandidateEmail, &conversationID, &a.Status,
		&endedAt, &durationSecs, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if conversationID.Valid {
		a.ConversationID = conversationID.String
	}
	if endedAt.Valid {
		a.EndedAt = &endedAt.Time
	}
	if durationSecs.Valid {
		d := int(durationSecs.Int64)
		a.DurationSecs = &d
	}

	return &a, nil
}

func (r *assessmentRepository) GetProblem(ctx context.Context, problemID string) (*models.Problem, error) {
	query := `
		SELECT id, title, description, rubric, created_at
		FROM problems
		WHERE id = $1`

	var p models.Problem
	err := r.db.QueryRowContext(ctx, query, problemID).Scan(
		&p.ID, &p.Title, &p.Description, &p.Rubric, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}

	return &p, nil
}

// MarkSubmitted flips a pending or active assessment to completed. Returns
// false when the assessment was already completed, which makes the submit
// endpoint idempotent.
func (r *assessmentRepository) MarkSubmitted(ctx context.Context, id string, endedAt time.Time, durationSecs int, conversationID string) (bool, error) {
	query := `
		UPDATE assessments
		SET status = $2, ended_at = $3, duration_secs = $4,
		    conversation_id = COALESCE(NULLIF($5, ''), conversation_id),
		    updated_at = now()
		WHERE id = $1 AND status NOT IN ($2, $6)`

	res, err := r.db.ExecContext(ctx, query, id,
		models.AssessmentCompleted, endedAt, durationSecs, conversationID, models.AssessmentGraded)
	if err != nil {
		return false, fmt.Errorf("failed to mark assessment submitted: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *assessmentRepository) MarkGraded(ctx context.Context, id string) error {
	query := `UPDATE assessments SET status = $2, updated_at = now() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, models.AssessmentGraded); err != nil {
		return fmt.Errorf("failed to mark assessment graded: %w", err)
	}
	return nil
}
