package ranking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pairmatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Ledger keeps the top scores and the reward pool. All mutations are serialized
// behind one lock and either apply fully or not at all.
type Ledger struct {
	owner     models.PlayerID
	clock     clockwork.Clock
	store     Store
	transfer  Transferrer
	publisher EventPublisher

	mu      sync.Mutex
	entries []models.ScoreRecord
	pool    int64
	nextSeq uint64
	awards  []models.Award
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used to timestamp submissions and awards.
func WithClock(c clockwork.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithStore persists every mutation before it becomes visible.
func WithStore(s Store) Option {
	return func(l *Ledger) { l.store = s }
}

// WithTransferrer sets the payment rail used by Award.
func WithTransferrer(t Transferrer) Option {
	return func(l *Ledger) { l.transfer = t }
}

// WithPublisher announces successful mutations.
func WithPublisher(p EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// NewLedger creates an empty ledger owned by owner.
func NewLedger(owner models.PlayerID, opts ...Option) *Ledger {
	l := &Ledger{
		owner: owner,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load restores state from the store, if one is configured.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	snap, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	entries := append([]models.ScoreRecord(nil), snap.Entries...)
	sortRanked(entries)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	nextSeq := snap.NextSeq
	for _, e := range entries {
		nextSeq = max(nextSeq, e.Seq)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.pool = snap.Pool
	l.nextSeq = nextSeq
	l.awards = append([]models.Award(nil), snap.Awards...)

	log.Info().
		Int("entries", len(entries)).
		Int64("pool", snap.Pool).
		Int("awards", len(snap.Awards)).
		Msg("ledger loaded")
	return nil
}

// SubmitScore offers a score to the top list. Scores that do not beat the
// current minimum of a full list are dropped without error.
func (l *Ledger) SubmitScore(ctx context.Context, player models.PlayerID, score int) error {
	if score < 0 {
		return ErrInvalidScore
	}

	l.mu.Lock()
	rec := models.ScoreRecord{
		Player:      player,
		Score:       score,
		SubmittedAt: l.clock.Now(),
		Seq:         l.nextSeq + 1,
	}
	next, ok := insertRanked(l.entries, rec)
	if !ok {
		l.mu.Unlock()
		log.Debug().Str("player", string(player)).Int("score", score).Msg("score below top list")
		return nil
	}
	if l.store != nil {
		if err := l.store.SaveEntries(ctx, next, rec.Seq); err != nil {
			l.mu.Unlock()
			return fmt.Errorf("failed to persist entries: %w", err)
		}
	}
	l.entries = next
	l.nextSeq = rec.Seq
	rank := rankOfSeq(next, rec.Seq)
	l.mu.Unlock()

	log.Info().
		Str("player", string(player)).
		Int("score", score).
		Int("rank", rank).
		Msg("score ranked")

	if l.publisher != nil {
		if err := l.publisher.ScoreSubmitted(ctx, rec, rank); err != nil {
			log.Error().Err(err).Str("player", string(player)).Msg("failed to publish ScoreSubmitted event")
		}
	}
	return nil
}

// Fund adds amount to the reward pool. Anyone may fund.
func (l *Ledger) Fund(ctx context.Context, funder models.PlayerID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	if l.pool > math.MaxInt64-amount {
		l.mu.Unlock()
		return ErrPoolOverflow
	}
	pool := l.pool + amount
	if l.store != nil {
		if err := l.store.SavePool(ctx, pool); err != nil {
			l.mu.Unlock()
			return fmt.Errorf("failed to persist pool: %w", err)
		}
	}
	l.pool = pool
	l.mu.Unlock()

	log.Info().
		Str("funder", string(funder)).
		Int64("amount", amount).
		Int64("pool", pool).
		Msg("pool funded")

	if l.publisher != nil {
		if err := l.publisher.PoolFunded(ctx, funder, amount, pool); err != nil {
			log.Error().Err(err).Msg("failed to publish PoolFunded event")
		}
	}
	return nil
}

// Award pays the whole pool to the current top scorer. Only the owner may call it.
// The pool is zeroed before the transfer runs, so a reentrant Award finds it empty.
// A failed transfer puts the amount back.
func (l *Ledger) Award(ctx context.Context, caller models.PlayerID) (models.Award, error) {
	l.mu.Lock()
	switch {
	case caller != l.owner:
		l.mu.Unlock()
		return models.Award{}, ErrNotOwner
	case l.pool <= 0:
		l.mu.Unlock()
		return models.Award{}, ErrEmptyPool
	case len(l.entries) == 0:
		l.mu.Unlock()
		return models.Award{}, ErrNoEntries
	}

	award := models.Award{
		ID:        uuid.New(),
		Winner:    l.entries[0].Player,
		Amount:    l.pool,
		AwardedBy: caller,
		AwardedAt: l.clock.Now(),
	}
	if l.store != nil {
		if err := l.store.RecordAward(ctx, award, 0); err != nil {
			l.mu.Unlock()
			return models.Award{}, fmt.Errorf("failed to persist award: %w", err)
		}
	}
	l.pool = 0
	l.mu.Unlock()

	if l.transfer != nil {
		if err := l.transfer.Transfer(ctx, award.Winner, award.Amount); err != nil {
			return models.Award{}, l.revertAward(ctx, award, err)
		}
	}

	l.mu.Lock()
	l.awards = append(l.awards, award)
	l.mu.Unlock()

	log.Info().
		Str("award_id", award.ID.String()).
		Str("winner", string(award.Winner)).
		Int64("amount", award.Amount).
		Msg("reward pool awarded")

	if l.publisher != nil {
		if err := l.publisher.RewardAwarded(ctx, award); err != nil {
			log.Error().Err(err).Str("award_id", award.ID.String()).Msg("failed to publish RewardAwarded event")
		}
	}
	return award, nil
}

// revertAward returns a failed award's amount to the pool.
func (l *Ledger) revertAward(ctx context.Context, award models.Award, cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := fmt.Errorf("transfer to %s failed: %w", award.Winner, cause)

	// Funding that landed during the transfer stays on top of the restored amount.
	pool := l.pool + award.Amount
	if pool < l.pool {
		pool = math.MaxInt64
	}
	if l.store != nil {
		if serr := l.store.RevertAward(ctx, award.ID, pool); serr != nil {
			log.Error().Err(serr).Str("award_id", award.ID.String()).Msg("failed to persist award revert")
			err = errors.Join(err, fmt.Errorf("failed to persist award revert: %w", serr))
		}
	}
	l.pool = pool

	log.Warn().
		Err(cause).
		Str("award_id", award.ID.String()).
		Int64("pool", pool).
		Msg("award reverted")
	return err
}

// GetBestScore returns the player's best ranked score and its 1-based rank,
// or (0, 0) when the player is not on the list.
func (l *Ledger) GetBestScore(player models.PlayerID) (score, rank int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.Player == player {
			return e.Score, i + 1
		}
	}
	return 0, 0
}

// TopEntries returns a copy of the ranked list, best first.
func (l *Ledger) TopEntries() []models.ScoreRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.ScoreRecord(nil), l.entries...)
}

// RewardPool returns the current pool amount.
func (l *Ledger) RewardPool() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool
}

// Owner returns the identity allowed to award the pool.
func (l *Ledger) Owner() models.PlayerID {
	return l.owner
}

// Awards returns a copy of the completed award journal, oldest first.
func (l *Ledger) Awards() []models.Award {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Award(nil), l.awards...)
}

// insertRanked returns a new ranked list containing rec, or false if rec does not make the list.
func insertRanked(entries []models.ScoreRecord, rec models.ScoreRecord) ([]models.ScoreRecord, bool) {
	out := make([]models.ScoreRecord, len(entries), MaxEntries)
	copy(out, entries)

	if len(out) < MaxEntries {
		out = append(out, rec)
	} else {
		if rec.Score <= out[len(out)-1].Score {
			return entries, false
		}
		out[len(out)-1] = rec
	}
	sortRanked(out)
	return out, true
}

// sortRanked orders by score descending; ties go to the earlier submission.
func sortRanked(entries []models.ScoreRecord) {
	slices.SortFunc(entries, func(a, b models.ScoreRecord) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
}

func rankOfSeq(entries []models.ScoreRecord, seq uint64) int {
	for i, e := range entries {
		if e.Seq == seq {
			return i + 1
		}
	}
	return 0
}
