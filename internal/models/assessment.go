package models

import "time"

// Assessment statuses.
const (
	AssessmentPending   = "pending"
	AssessmentActive    = "active"
	AssessmentCompleted = "completed"
	AssessmentGraded    = "graded"
)

type Assessment struct {
	ID             string     `json:"id"`
	ProblemID      string     `json:"problem_id"`
	CandidateEmail string     `json:"candidate_email,omitempty"`
	ConversationID string     `json:"conversation_id,omitempty"`
	Status         string     `json:"status"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	DurationSecs   *int       `json:"duration_secs,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Problem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Rubric      string    `json:"rubric"`
	CreatedAt   time.Time `json:"created_at"`
}
