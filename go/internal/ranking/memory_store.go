package ranking

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/pairmatch/go/internal/models"
)

// MemoryStore keeps ledger state in process. It survives ledger restarts
// within one process and backs tests and database-less runs.
type MemoryStore struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Entries: append([]models.ScoreRecord(nil), m.snap.Entries...),
		Pool:    m.snap.Pool,
		NextSeq: m.snap.NextSeq,
		Awards:  append([]models.Award(nil), m.snap.Awards...),
	}, nil
}

func (m *MemoryStore) SaveEntries(ctx context.Context, entries []models.ScoreRecord, nextSeq uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Entries = append([]models.ScoreRecord(nil), entries...)
	m.snap.NextSeq = nextSeq
	return nil
}

func (m *MemoryStore) SavePool(ctx context.Context, pool int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Pool = pool
	return nil
}

func (m *MemoryStore) RecordAward(ctx context.Context, award models.Award, pool int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Awards = append(m.snap.Awards, award)
	m.snap.Pool = pool
	return nil
}

func (m *MemoryStore) RevertAward(ctx context.Context, awardID uuid.UUID, pool int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.snap.Awards {
		if a.ID == awardID {
			m.snap.Awards = append(m.snap.Awards[:i], m.snap.Awards[i+1:]...)
			break
		}
	}
	m.snap.Pool = pool
	return nil
}
