package models

import "time"

// Violation types recorded during a proctored session.
const (
	ViolationMultipleFaces = "multiple_faces"
	ViolationNoFace        = "no_face"
	ViolationLookingAway   = "looking_away"
	ViolationPhoneVisible  = "phone_visible"
	ViolationTabSwitch     = "tab_switch"
)

// Severity levels for violations.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

type Violation struct {
	ID           string   `json:"id"`
	SessionID    string   `json:"session_id"`
	AssessmentID string   `json:"assessment_id,omitempty"`
	Type         string   `json:"violation_type"`
	Severity     string   `json:"severity"`
	Confidence   *float64 `json:"confidence,omitempty"`
	Detail       string   `json:"detail,omitempty"`
	OccurredAt   int64    `json:"timestamp"`
}

// ProctoringFrame is a single captured webcam frame. Frames are transient
// and are never persisted.
type ProctoringFrame struct {
	SessionID    string `json:"session_id"`
	AssessmentID string `json:"assessment_id,omitempty"`
	Image        string `json:"frame"`
	CapturedAt   int64  `json:"timestamp"`
}

// ClassifierResult is the outcome of analyzing one frame. Either a suspicion
// score with reasons, or a list of typed violations, depending on what the
// analyzer returned.
type ClassifierResult struct {
	SuspicionScore int         `json:"suspicion_score"`
	Reasons        []string    `json:"reasons"`
	Violations     []Violation `json:"violations,omitempty"`
}

func NowMillis() int64 {
	return time.Now().UnixMilli()
}
