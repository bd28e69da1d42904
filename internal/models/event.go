package models

import (
	"encoding/json"
	"time"
)

// InterviewCompletedEvent is published when a candidate submits an interview
// and consumed by the grading worker.
type InterviewCompletedEvent struct {
	AssessmentID   string          `json:"assessment_id"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Diagram        json.RawMessage `json:"diagram,omitempty"`
	EndedAt        time.Time       `json:"ended_at"`
	DurationSecs   int             `json:"duration_secs"`
	Timestamp      time.Time       `json:"timestamp"`
}
