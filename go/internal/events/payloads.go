package events

import (
	"time"
)

// Event types published on the game event stream.
const (
	EventTypeGameCompleted  = "GameCompleted"
	EventTypeScoreSubmitted = "ScoreSubmitted"
	EventTypePoolFunded     = "PoolFunded"
	EventTypeRewardAwarded  = "RewardAwarded"
)

// GameCompletedPayload is the payload for a GameCompleted event
type GameCompletedPayload struct {
	SessionID   string    `json:"session_id"`
	Player      string    `json:"player,omitempty"`
	Score       int       `json:"score"`
	MatchScore  int       `json:"match_score"`
	TimeBonus   int       `json:"time_bonus"`
	MoveBonus   int       `json:"move_bonus"`
	Elapsed     int       `json:"elapsed_sec"`
	Moves       int       `json:"moves"`
	CompletedAt time.Time `json:"completed_at"`
}

// ScoreSubmittedPayload is the payload for a ScoreSubmitted event
type ScoreSubmittedPayload struct {
	Player      string    `json:"player"`
	Score       int       `json:"score"`
	Rank        int       `json:"rank"`
	Seq         uint64    `json:"seq"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// PoolFundedPayload is the payload for a PoolFunded event
type PoolFundedPayload struct {
	Funder string `json:"funder"`
	Amount int64  `json:"amount"`
	Pool   int64  `json:"pool"`
}

// RewardAwardedPayload is the payload for a RewardAwarded event
type RewardAwardedPayload struct {
	AwardID   string    `json:"award_id"`
	Winner    string    `json:"winner"`
	Amount    int64     `json:"amount"`
	AwardedBy string    `json:"awarded_by"`
	AwardedAt time.Time `json:"awarded_at"`
}
