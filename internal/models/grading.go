package models

import "time"

// GradingRequest carries everything the grader needs. Immutable once built.
type GradingRequest struct {
	AssessmentID       string            `json:"assessment_id"`
	ProblemDescription string            `json:"problem_description"`
	Rubric             string            `json:"rubric"`
	Transcript         string            `json:"transcript"`
	Diagram            NormalizedDiagram `json:"diagram"`
}

// GradingScores holds the five rubric dimensions, each 0-10. Pointer fields
// so a missing key in the model output is distinguishable from a zero.
type GradingScores struct {
	Reliability      *float64 `json:"reliability"`
	Scalability      *float64 `json:"scalability"`
	Availability     *float64 `json:"availability"`
	Communication    *float64 `json:"communication"`
	TradeOffAnalysis *float64 `json:"trade_off_analysis"`
}

// Named returns the scores keyed by rubric dimension, in a stable order.
func (s GradingScores) Named() []NamedScore {
	return []NamedScore{
		{"reliability", s.Reliability},
		{"scalability", s.Scalability},
		{"availability", s.Availability},
		{"communication", s.Communication},
		{"trade_off_analysis", s.TradeOffAnalysis},
	}
}

type NamedScore struct {
	Name  string
	Value *float64
}

type GradingResult struct {
	AssessmentID string        `json:"assessment_id,omitempty"`
	Scores       GradingScores `json:"scores"`
	OverallScore float64       `json:"overall_score"`
	Summary      string        `json:"summary"`
	Strengths    []string      `json:"strengths"`
	Weaknesses   []string      `json:"weaknesses"`
}

// GradingRecord is the persisted form of a validated result, including the
// inputs kept for audit.
type GradingRecord struct {
	AssessmentID string
	Result       GradingResult
	Transcript   string
	Diagram      NormalizedDiagram
	CreatedAt    time.Time
}
