package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionLengthSeconds is the fixed time box of a practice session (45 minutes).
const SessionLengthSeconds = 2700

// Session is an in-progress practice attempt. It is mutable until it
// reaches a terminal state, at which point it is converted into a
// CompletedSession and discarded.
type Session struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	QuestionID           uuid.UUID  `json:"question_id"`
	StartTime            time.Time  `json:"start_time"`
	EndTime              *time.Time `json:"end_time,omitempty"`
	TimeRemainingSeconds int        `json:"time_remaining_seconds"`
	PressureModeEnabled  bool       `json:"pressure_mode_enabled"`
	HintRevealed         bool       `json:"hint_revealed"`
}

// CompletedSession is the immutable historical record of a finished
// attempt. It is written once and never mutated.
type CompletedSession struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	QuestionID          uuid.UUID `json:"question_id"`
	QuestionTitle       string    `json:"question_title"`
	Category            string    `json:"category"`
	Difficulty          string    `json:"difficulty"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	DurationSeconds     int       `json:"duration_seconds"`
	Rating              int       `json:"rating"`
	PerceivedDifficulty string    `json:"perceived_difficulty"`
	Notes               string    `json:"notes"`
	PressureModeUsed    bool      `json:"pressure_mode_used"`
	AutoSubmitted       bool      `json:"auto_submitted"`
}

// SessionFeedback is the self-assessment supplied when ending a session.
type SessionFeedback struct {
	Rating              int    `json:"rating"`
	PerceivedDifficulty string `json:"perceived_difficulty"`
	Notes               string `json:"notes"`
}

type StartSessionRequest struct {
	PressureMode bool `json:"pressure_mode"`
}
