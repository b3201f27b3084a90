package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/pairmatch/go/internal/dbconfig"
)

// Score mirrors the JSON seed file.
type Score struct {
	Player      string    `json:"player"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func main() {
	// 1) Load the JSON snapshot
	path := "go/internal/assets/scores.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var scores []Score
	if err := json.Unmarshal(data, &scores); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Append after the current sequence in one transaction
	var inserted, skipped int
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var nextSeq int64
		if err := tx.QueryRow(ctx, `SELECT next_seq FROM ledger_state WHERE id = 1 FOR UPDATE`).Scan(&nextSeq); err != nil {
			return fmt.Errorf("read ledger state: %w", err)
		}

		for _, s := range scores {
			if s.Score < 0 || s.Player == "" {
				skipped++
				continue
			}
			nextSeq++
			if _, err := tx.Exec(ctx, `
                INSERT INTO ledger_entries (seq, player, score, submitted_at)
                VALUES ($1, $2, $3, $4)
            `, nextSeq, s.Player, s.Score, s.SubmittedAt.UTC()); err != nil {
				return fmt.Errorf("insert score for %s: %w", s.Player, err)
			}
			inserted++
		}

		_, err := tx.Exec(ctx, `UPDATE ledger_state SET next_seq = $1, updated_at = now() WHERE id = 1`, nextSeq)
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	// 4) Print summary. The ledger keeps only its top entries on load.
	fmt.Printf(
		"Scores seed complete: %d total, %d inserted, %d skipped\n",
		len(scores), inserted, skipped,
	)
}
