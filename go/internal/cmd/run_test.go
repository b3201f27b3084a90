package main

import (
	"testing"
	"time"

	"github.com/mcdev12/pairmatch/go/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAwardsTopScorer(t *testing.T) {
	cfg := defaultConfig()
	cfg.Game.Symbols = []string{"A", "B"}
	cfg.Autoplay.Players = []string{"alice", "bob"}
	cfg.Autoplay.ThinkTime = time.Millisecond
	cfg.Ledger.Fund = 7

	services, err := setupServices(t.Context(), cfg, ranking.NewMemoryStore(), nil)
	require.NoError(t, err)

	require.NoError(t, run(t.Context(), cfg, services))

	entries := services.Ledger.TopEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, 2, services.History.Len())
	assert.Zero(t, services.Ledger.RewardPool())

	awards := services.Ledger.Awards()
	require.Len(t, awards, 1)
	assert.Equal(t, entries[0].Player, awards[0].Winner)
	assert.Equal(t, int64(7), awards[0].Amount)
}
