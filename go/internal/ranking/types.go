package ranking

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/pairmatch/go/internal/models"
)

// MaxEntries is the size of the ranked top list.
const MaxEntries = 10

// Snapshot is the full persisted state of a ledger.
type Snapshot struct {
	Entries []models.ScoreRecord
	Pool    int64
	NextSeq uint64
	Awards  []models.Award
}

// Store persists ledger state. Each method is one atomic write.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	SaveEntries(ctx context.Context, entries []models.ScoreRecord, nextSeq uint64) error
	SavePool(ctx context.Context, pool int64) error
	// RecordAward journals the award and sets the pool in one write.
	RecordAward(ctx context.Context, award models.Award, pool int64) error
	// RevertAward removes a journaled award whose transfer failed and sets the pool.
	RevertAward(ctx context.Context, awardID uuid.UUID, pool int64) error
}

// Transferrer moves value out of the pool to a player on some payment rail.
type Transferrer interface {
	Transfer(ctx context.Context, to models.PlayerID, amount int64) error
}

// EventPublisher is notified after each successful ledger mutation.
type EventPublisher interface {
	ScoreSubmitted(ctx context.Context, record models.ScoreRecord, rank int) error
	PoolFunded(ctx context.Context, funder models.PlayerID, amount, pool int64) error
	RewardAwarded(ctx context.Context, award models.Award) error
}
