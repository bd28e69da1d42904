package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"interviewd/internal/models"
)

type ViolationRepository interface {
	Create(ctx context.Context, v *models.Violation) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Violation, error)
}

type violationRepository struct {
	*PostgresRepository
}

func NewViolationRepository(db *sql.DB, logger zerolog.Logger) ViolationRepository {
	return &violationRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *violationRepository) Create(ctx context.Context, v *models.Violation) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}

	query := `
		INSERT INTO violations (id, session_id, assessment_id, violation_type, severity, confidence, detail, occurred_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.SessionID, v.AssessmentID, v.Type, v.Severity, v.Confidence, v.Detail, v.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert violation: %w", err)
	}

	return nil
}

func (r *violationRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Violation, error) {
	query := `
		SELECT id, session_id, COALESCE(assessment_id::text, ''), violation_type, severity, confidence, detail, occurred_at
		FROM violations
		WHERE session_id = $1
		ORDER BY occurred_at`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	defer rows.Close()

	var violations []models.Violation
	for rows.Next() {
		var (
			v          models.Violation
			confidence sql.NullFloat64
		)
		if err := rows.Scan(&v.ID, &v.SessionID, &v.AssessmentID, &v.Type, &v.Severity, &confidence, &v.Detail, &v.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		if confidence.Valid {
			v.Confidence = &confidence.Float64
		}
		violations = append(violations, v)
	}

	return violations, rows.Err()
}
