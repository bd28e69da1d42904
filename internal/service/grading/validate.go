package grading

import (
	"fmt"
	"math"
	"strings"

	"interviewd/internal/models"
)

// ValidateResult checks the shape the grader must produce: five named
// scores in [0,10] and a non-empty summary.
func ValidateResult(result *models.GradingResult) error {
	for _, score := range result.Scores.Named() {
		if score.Value == nil {
			return fmt.Errorf("missing score: %s", score.Name)
		}
		if *score.Value < 0 || *score.Value > 10 {
			return fmt.Errorf("invalid score for %s: %g (must be between 0 and 10)", score.Name, *score.Value)
		}
	}

	if strings.TrimSpace(result.Summary) == "" {
		return fmt.Errorf("missing or empty summary")
	}

	return nil
}

// OverallScore is the mean of the five scores rounded to one decimal.
func OverallScore(scores models.GradingScores) float64 {
	var sum float64
	named := scores.Named()
	for _, score := range named {
		if score.Value != nil {
			sum += *score.Value
		}
	}
	return math.Round(sum/float64(len(named))*10) / 10
}

// InvalidatedResult is the fixed all-zero result recorded when the
// transcript tried to steer the grader.
func InvalidatedResult(assessmentID string) models.GradingResult {
	zero := func() *float64 { v := 0.0; return &v }
	return models.GradingResult{
		AssessmentID: assessmentID,
		Scores: models.GradingScores{
			Reliability:      zero(),
			Scalability:      zero(),
			Availability:     zero(),
			Communication:    zero(),
			TradeOffAnalysis: zero(),
		},
		OverallScore: 0,
		Summary:      invalidationSummary,
		Strengths:    []string{},
		Weaknesses:   []string{},
	}
}
