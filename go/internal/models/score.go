package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerID is the opaque identity token handed out by the identity provider.
type PlayerID string

// ScoreRecord is one ranked entry in the ledger.
type ScoreRecord struct {
	Player      PlayerID  `json:"player"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
	Seq         uint64    `json:"seq"` // ledger-assigned submission order
}

// Award records a drained reward pool paid out to the top scorer.
type Award struct {
	ID        uuid.UUID `json:"id"`
	Winner    PlayerID  `json:"winner"`
	Amount    int64     `json:"amount"`
	AwardedBy PlayerID  `json:"awarded_by"`
	AwardedAt time.Time `json:"awarded_at"`
}
