package ranking

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/pairmatch/go/internal/models"
	"github.com/mcdev12/pairmatch/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the ledger SQL bound to a connection or transaction.
type queries struct {
	db DBTX
}

func newQueries(tx *sql.Tx) *queries {
	return &queries{db: tx}
}

// PostgresStore persists the ledger in Postgres.
type PostgresStore struct {
	db *sql.DB
	q  *queries
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: &queries{db: db}}
}

// Migrate creates the ledger tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	pool, nextSeq, err := s.q.getState(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load ledger state: %w", err)
	}
	snap.Pool = pool
	snap.NextSeq = nextSeq

	if snap.Entries, err = s.q.listEntries(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("failed to load ledger entries: %w", err)
	}
	if snap.Awards, err = s.q.listAwards(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("failed to load ledger awards: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) SaveEntries(ctx context.Context, entries []models.ScoreRecord, nextSeq uint64) error {
	return sqlutil.Run(ctx, s.db, newQueries, func(q *queries) error {
		if err := q.deleteEntries(ctx); err != nil {
			return err
		}
		for _, e := range entries {
			if err := q.insertEntry(ctx, e); err != nil {
				return err
			}
		}
		return q.setNextSeq(ctx, nextSeq)
	})
}

func (s *PostgresStore) SavePool(ctx context.Context, pool int64) error {
	if err := s.q.setPool(ctx, pool); err != nil {
		return fmt.Errorf("failed to save pool: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordAward(ctx context.Context, award models.Award, pool int64) error {
	meta, err := json.Marshal(awardMetadata{PoolBefore: award.Amount})
	if err != nil {
		return fmt.Errorf("failed to marshal award metadata: %w", err)
	}
	return sqlutil.Run(ctx, s.db, newQueries, func(q *queries) error {
		if err := q.insertAward(ctx, award, sqlutil.ToNullRawMessage(meta)); err != nil {
			return err
		}
		return q.setPool(ctx, pool)
	})
}

func (s *PostgresStore) RevertAward(ctx context.Context, awardID uuid.UUID, pool int64) error {
	return sqlutil.Run(ctx, s.db, newQueries, func(q *queries) error {
		if err := q.deleteAward(ctx, awardID); err != nil {
			return err
		}
		return q.setPool(ctx, pool)
	})
}

type awardMetadata struct {
	PoolBefore int64 `json:"pool_before"`
}

const getState = `SELECT pool, next_seq FROM ledger_state WHERE id = 1`

func (q *queries) getState(ctx context.Context) (int64, uint64, error) {
	var pool, nextSeq int64
	if err := q.db.QueryRowContext(ctx, getState).Scan(&pool, &nextSeq); err != nil {
		return 0, 0, err
	}
	return pool, uint64(nextSeq), nil
}

const setPool = `UPDATE ledger_state SET pool = $1, updated_at = now() WHERE id = 1`

func (q *queries) setPool(ctx context.Context, pool int64) error {
	_, err := q.db.ExecContext(ctx, setPool, pool)
	return err
}

const setNextSeq = `UPDATE ledger_state SET next_seq = $1, updated_at = now() WHERE id = 1`

func (q *queries) setNextSeq(ctx context.Context, nextSeq uint64) error {
	_, err := q.db.ExecContext(ctx, setNextSeq, int64(nextSeq))
	return err
}

const listEntries = `SELECT seq, player, score, submitted_at FROM ledger_entries ORDER BY score DESC, seq ASC`

func (q *queries) listEntries(ctx context.Context) ([]models.ScoreRecord, error) {
	rows, err := q.db.QueryContext(ctx, listEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ScoreRecord
	for rows.Next() {
		var (
			seq    int64
			player string
			rec    models.ScoreRecord
		)
		if err := rows.Scan(&seq, &player, &rec.Score, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		rec.Seq = uint64(seq)
		rec.Player = models.PlayerID(player)
		entries = append(entries, rec)
	}
	return entries, rows.Err()
}

const deleteEntries = `DELETE FROM ledger_entries`

func (q *queries) deleteEntries(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteEntries)
	return err
}

const insertEntry = `INSERT INTO ledger_entries (seq, player, score, submitted_at) VALUES ($1, $2, $3, $4)`

func (q *queries) insertEntry(ctx context.Context, e models.ScoreRecord) error {
	_, err := q.db.ExecContext(ctx, insertEntry, int64(e.Seq), string(e.Player), e.Score, e.SubmittedAt.UTC())
	return err
}

const listAwards = `SELECT id, winner, amount, awarded_by, awarded_at FROM ledger_awards ORDER BY awarded_at ASC`

func (q *queries) listAwards(ctx context.Context) ([]models.Award, error) {
	rows, err := q.db.QueryContext(ctx, listAwards)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var awards []models.Award
	for rows.Next() {
		var (
			a                 models.Award
			winner, awardedBy string
		)
		if err := rows.Scan(&a.ID, &winner, &a.Amount, &awardedBy, &a.AwardedAt); err != nil {
			return nil, err
		}
		a.Winner = models.PlayerID(winner)
		a.AwardedBy = models.PlayerID(awardedBy)
		awards = append(awards, a)
	}
	return awards, rows.Err()
}

const insertAward = `INSERT INTO ledger_awards (id, winner, amount, awarded_by, awarded_at, metadata) VALUES ($1, $2, $3, $4, $5, $6)`

func (q *queries) insertAward(ctx context.Context, a models.Award, meta pqtype.NullRawMessage) error {
	_, err := q.db.ExecContext(ctx, insertAward, a.ID, string(a.Winner), a.Amount, string(a.AwardedBy), a.AwardedAt.UTC(), meta)
	return err
}

const deleteAward = `DELETE FROM ledger_awards WHERE id = $1`

func (q *queries) deleteAward(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteAward, id)
	return err
}
