package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"interviewd/internal/models"
)

type ResultRepository interface {
	// Insert persists a grading record. Returns false when a result for the
	// assessment already exists; the existing row is never overwritten.
	Insert(ctx context.Context, rec *models.GradingRecord) (bool, error)
	GetByAssessment(ctx context.Context, assessmentID string) (*models.GradingResult, error)
}

type resultRepository struct {
	*PostgresRepository
}

func NewResultRepository(db *sql.DB, logger zerolog.Logger) ResultRepository {
	return &resultRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *resultRepository) Insert(ctx context.Context, rec *models.GradingRecord) (bool, error) {
	diagram, err := json.Marshal(rec.Diagram)
	if err != nil {
		return false, fmt.Errorf("failed to marshal diagram: %w", err)
	}

	s := rec.Result.Scores

	query := `
		INSERT INTO assessment_results
			(assessment_id, reliability, scalability, availability, communication,
			 trade_off_analysis, overall_score, summary, strengths, weaknesses,
			 transcript, diagram, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (assessment_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		rec.AssessmentID,
		scoreValue(s.Reliability), scoreValue(s.Scalability), scoreValue(s.Availability),
		scoreValue(s.Communication), scoreValue(s.TradeOffAnalysis),
		rec.Result.OverallScore, rec.Result.Summary,
		pq.Array(rec.Result.Strengths), pq.Array(rec.Result.Weaknesses),
		rec.Transcript, diagram, rec.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert grading result: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *resultRepository) GetByAssessment(ctx context.Context, assessmentID string) (*models.GradingResult, error) {
	query := `
		SELECT assessment_id, reliability, scalability, availability, communication,
		       trade_off_analysis, overall_score, summary, strengths, weaknesses
		FROM assessment_results
		WHERE assessment_id = $1`

	var result models.GradingResult
	var reliability, scalability, availability, communication, tradeOff float64
	var strengths, weaknesses pq.StringArray

	err := r.db.QueryRowContext(ctx, query, assessmentID).Scan(
		&result.AssessmentID,
		&reliability, &scalability, &availability, &communication, &tradeOff,
		&result.OverallScore, &result.Summary, &strengths, &weaknesses,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grading result: %w", err)
	}

	result.Scores = models.GradingScores{
		Reliability:      &reliability,
		Scalability:      &scalability,
		Availability:     &availability,
		Communication:    &communication,
		TradeOffAnalysis: &tradeOff,
	}
	result.Strengths = strengths
	result.Weaknesses = weaknesses

	return &result, nil
}

func scoreValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
