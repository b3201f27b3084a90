package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionState defines the lifecycle state of a game session.
type SessionState string

const (
	SessionStateIdle      SessionState = "IDLE"
	SessionStatePlaying   SessionState = "PLAYING"
	SessionStatePaused    SessionState = "PAUSED"
	SessionStateCompleted SessionState = "COMPLETED"
)

// SessionSnapshot is a read-only copy of a session for presentation.
type SessionSnapshot struct {
	ID      uuid.UUID    `json:"id"`
	State   SessionState `json:"state"`
	Cards   []Card       `json:"cards"`
	Elapsed int          `json:"elapsed"`
	Moves   int          `json:"moves"`
	Score   int          `json:"score"`
	Pending []int        `json:"pending,omitempty"`
}

// SessionResult is emitted once when a session reaches SessionStateCompleted.
type SessionResult struct {
	SessionID   uuid.UUID `json:"session_id"`
	Score       int       `json:"score"`
	MatchScore  int       `json:"match_score"`
	TimeBonus   int       `json:"time_bonus"`
	MoveBonus   int       `json:"move_bonus"`
	Elapsed     int       `json:"elapsed"`
	Moves       int       `json:"moves"`
	CompletedAt time.Time `json:"completed_at"`
}
