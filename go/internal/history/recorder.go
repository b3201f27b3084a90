package history

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mcdev12/pairmatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultCapacity is how many finished sessions a Recorder keeps.
const DefaultCapacity = 100

const publishTimeout = 5 * time.Second

// Entry is one finished session.
type Entry struct {
	Player models.PlayerID
	Result models.SessionResult
}

// SessionPublisher forwards finished sessions, e.g. to the event stream.
type SessionPublisher interface {
	SessionCompleted(ctx context.Context, player models.PlayerID, result models.SessionResult) error
}

// CompletionSource is anything that reports finished sessions.
type CompletionSource interface {
	OnCompleted(fn func(result models.SessionResult))
}

// Recorder keeps the most recent finished sessions in memory.
type Recorder struct {
	mu        sync.Mutex
	capacity  int
	entries   []Entry
	publisher SessionPublisher
}

// NewRecorder keeps up to capacity entries; capacity <= 0 uses DefaultCapacity.
// publisher may be nil.
func NewRecorder(capacity int, publisher SessionPublisher) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{capacity: capacity, publisher: publisher}
}

// Attach records every session the source completes under player's name.
func (r *Recorder) Attach(src CompletionSource, player models.PlayerID) {
	src.OnCompleted(func(result models.SessionResult) {
		r.Record(player, result)
	})
}

// Record stores a finished session, dropping the oldest when full.
func (r *Recorder) Record(player models.PlayerID, result models.SessionResult) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Player: player, Result: result})
	if over := len(r.entries) - r.capacity; over > 0 {
		r.entries = slices.Delete(r.entries, 0, over)
	}
	r.mu.Unlock()

	if r.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.publisher.SessionCompleted(ctx, player, result); err != nil {
		log.Error().
			Err(err).
			Str("session_id", result.SessionID.String()).
			Msg("failed to publish GameCompleted event")
	}
}

// Recent returns up to n entries, newest first.
func (r *Recorder) Recent(n int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = min(n, len(r.entries))
	out := make([]Entry, 0, n)
	for i := len(r.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.entries[i])
	}
	return out
}

// Best returns the player's highest recorded score.
func (r *Recorder) Best(player models.PlayerID) (models.SessionResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mine []models.SessionResult
	for _, e := range r.entries {
		if e.Player == player {
			mine = append(mine, e.Result)
		}
	}
	if len(mine) == 0 {
		return models.SessionResult{}, false
	}
	return slices.MaxFunc(mine, func(a, b models.SessionResult) int {
		return cmp.Compare(a.Score, b.Score)
	}), true
}

// Len reports how many entries are held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
