package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pairmatch/go/internal/game/clock"
	"github.com/mcdev12/pairmatch/go/internal/game/deck"
	"github.com/mcdev12/pairmatch/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fixedDealer deals A B A C B D C D: pairs are (0,2) (1,4) (3,6) (5,7).
type fixedDealer struct{}

func (fixedDealer) Deal([]string) []models.Card {
	values := []string{"A", "B", "A", "C", "B", "D", "C", "D"}
	cards := make([]models.Card, len(values))
	for i, v := range values {
		cards[i] = models.Card{ID: i, Value: v}
	}
	return cards
}

var pairs = [][2]int{{0, 2}, {1, 4}, {3, 6}, {5, 7}}

func newTestEngine(t *testing.T) (*Engine, *clock.Virtual) {
	t.Helper()
	v := clock.NewVirtual(epoch)
	cfg := Config{Symbols: []string{"A", "B", "C", "D"}, Scoring: DefaultScoring()}
	e, err := NewEngine(cfg, v, fixedDealer{})
	require.NoError(t, err)
	return e, v
}

func revealedUnmatched(s models.SessionSnapshot) int {
	n := 0
	for _, c := range s.Cards {
		if c.Revealed && !c.Matched {
			n++
		}
	}
	return n
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		desc string
		cfg  Config
		want error
	}{
		{"no symbols", Config{Scoring: DefaultScoring()}, ErrNoSymbols},
		{"negative reward", Config{Symbols: []string{"A"}, Scoring: Scoring{MatchReward: -1}}, ErrNegativeScoring},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := NewEngine(tc.cfg, clock.NewVirtual(epoch), fixedDealer{})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestStartGame(t *testing.T) {
	e, _ := newTestEngine(t)
	require.Equal(t, models.SessionStateIdle, e.State())

	e.StartGame()
	s := e.Snapshot()
	assert.Equal(t, models.SessionStatePlaying, s.State)
	assert.Len(t, s.Cards, 8)
	assert.Zero(t, s.Elapsed)
	assert.Zero(t, s.Moves)
	assert.Zero(t, s.Score)
	assert.Empty(t, s.Pending)
}

func TestRevealIgnored(t *testing.T) {
	testCases := []struct {
		desc  string
		setup func(e *Engine)
		id    int
	}{
		{"idle", func(e *Engine) {}, 0},
		{"paused", func(e *Engine) { e.StartGame(); e.PauseGame() }, 0},
		{"negative id", func(e *Engine) { e.StartGame() }, -1},
		{"out of range", func(e *Engine) { e.StartGame() }, 8},
		{"already revealed", func(e *Engine) { e.StartGame(); e.RevealCard(3) }, 3},
		{"resolution pending", func(e *Engine) { e.StartGame(); e.RevealCard(0); e.RevealCard(1) }, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			e, _ := newTestEngine(t)
			tc.setup(e)
			before := e.Snapshot()

			assert.False(t, e.RevealCard(tc.id))
			assert.Equal(t, before, e.Snapshot())
		})
	}
}

func TestMismatchReverts(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	require.True(t, e.RevealCard(0))
	require.True(t, e.RevealCard(1))
	assert.Equal(t, []int{0, 1}, e.Snapshot().Pending)
	assert.False(t, e.RevealCard(2), "third reveal must wait for resolution")

	v.Advance(MismatchDelay - time.Millisecond)
	s := e.Snapshot()
	assert.True(t, s.Cards[0].Revealed)
	assert.True(t, s.Cards[1].Revealed)

	v.Advance(time.Millisecond)
	s = e.Snapshot()
	assert.False(t, s.Cards[0].Revealed)
	assert.False(t, s.Cards[1].Revealed)
	assert.False(t, s.Cards[0].Matched)
	assert.False(t, s.Cards[1].Matched)
	assert.Empty(t, s.Pending)
	assert.Equal(t, 2, s.Moves)
	assert.Zero(t, s.Score)

	assert.True(t, e.RevealCard(0), "reverted cards can be flipped again")
}

func TestMatchConfirms(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	require.True(t, e.RevealCard(0))
	require.True(t, e.RevealCard(2))

	v.Advance(MatchDelay - time.Millisecond)
	s := e.Snapshot()
	assert.False(t, s.Cards[0].Matched)
	assert.Zero(t, s.Score)

	v.Advance(time.Millisecond)
	s = e.Snapshot()
	assert.True(t, s.Cards[0].Matched)
	assert.True(t, s.Cards[2].Matched)
	assert.Equal(t, 100, s.Score)
	assert.Empty(t, s.Pending)

	assert.False(t, e.RevealCard(0), "matched card cannot be revealed")
}

func TestMismatchThenMatch(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	e.RevealCard(0)
	e.RevealCard(1)
	v.Advance(MismatchDelay)

	e.RevealCard(0)
	e.RevealCard(2)
	v.Advance(MatchDelay)

	s := e.Snapshot()
	assert.True(t, s.Cards[0].Matched)
	assert.True(t, s.Cards[2].Matched)
	assert.False(t, s.Cards[1].Revealed)
	assert.Equal(t, 100, s.Score)
	assert.Equal(t, 4, s.Moves)
}

func TestAtMostTwoRevealedUnmatched(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	// Hammer reveals across every card while time moves in small steps.
	for round := 0; round < 40; round++ {
		for id := 0; id < 8; id++ {
			e.RevealCard((id + round) % 8)
			require.LessOrEqual(t, revealedUnmatched(e.Snapshot()), 2)
		}
		v.Advance(250 * time.Millisecond)
	}
}

func TestMatchedIsMonotonic(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	e.RevealCard(0)
	e.RevealCard(2)
	v.Advance(MatchDelay)

	for i := 0; i < 5; i++ {
		e.RevealCard(1)
		e.RevealCard(3)
		v.Advance(MismatchDelay)
		s := e.Snapshot()
		require.True(t, s.Cards[0].Matched)
		require.True(t, s.Cards[2].Matched)
	}
}

func TestTicker(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	v.Advance(3 * time.Second)
	assert.Equal(t, 3, e.Snapshot().Elapsed)

	e.PauseGame()
	assert.Equal(t, models.SessionStatePaused, e.State())
	v.Advance(10 * time.Second)
	assert.Equal(t, 3, e.Snapshot().Elapsed)

	e.ResumeGame()
	e.ResumeGame()
	v.Advance(2 * time.Second)
	assert.Equal(t, 5, e.Snapshot().Elapsed, "repeated resume must not double the tick rate")
}

func TestPauseKeepsInFlightResolution(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	e.RevealCard(0)
	e.RevealCard(2)
	e.PauseGame()

	v.Advance(MatchDelay)
	s := e.Snapshot()
	assert.Equal(t, models.SessionStatePaused, s.State)
	assert.True(t, s.Cards[0].Matched)
	assert.Equal(t, 100, s.Score)
	assert.Zero(t, s.Elapsed)
}

func playAll(e *Engine, v *clock.Virtual) {
	for _, p := range pairs {
		e.RevealCard(p[0])
		e.RevealCard(p[1])
		v.Advance(MatchDelay)
	}
}

func TestCompletion(t *testing.T) {
	e, v := newTestEngine(t)

	var results []models.SessionResult
	e.OnCompleted(func(r models.SessionResult) { results = append(results, r) })

	e.StartGame()
	playAll(e, v)

	s := e.Snapshot()
	require.Equal(t, models.SessionStateCompleted, s.State)
	assert.Equal(t, 2, s.Elapsed)
	assert.Equal(t, 8, s.Moves)

	// 4 matches, then (1000 - 2*10) + (500 - 8*10).
	assert.Equal(t, 400+980+420, s.Score)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, s.ID, r.SessionID)
	assert.Equal(t, s.Score, r.Score)
	assert.Equal(t, 400, r.MatchScore)
	assert.Equal(t, 980, r.TimeBonus)
	assert.Equal(t, 420, r.MoveBonus)
	assert.Equal(t, epoch.Add(2*time.Second), r.CompletedAt)

	got, ok := e.Result()
	require.True(t, ok)
	assert.Equal(t, r, got)
}

func TestCompletedIsFrozen(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()
	playAll(e, v)
	before := e.Snapshot()

	v.Advance(time.Minute)
	assert.False(t, e.RevealCard(0))
	e.PauseGame()
	e.ResumeGame()
	v.Advance(time.Minute)

	assert.Equal(t, before, e.Snapshot())
	assert.Zero(t, v.Pending(), "no timers outlive completion")
}

func TestBonusesFloorAtZero(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	// Burn time and moves with mismatches before clearing the board.
	for i := 0; i < 30; i++ {
		e.RevealCard(0)
		e.RevealCard(1)
		v.Advance(MismatchDelay)
	}
	v.Advance(200 * time.Second)
	playAll(e, v)

	r, ok := e.Result()
	require.True(t, ok)
	assert.Zero(t, r.TimeBonus)
	assert.Zero(t, r.MoveBonus)
	assert.Equal(t, 400, r.Score)
	assert.GreaterOrEqual(t, r.Score, len(pairs)*100)
}

func TestCompletionWhilePaused(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	for _, p := range pairs[:3] {
		e.RevealCard(p[0])
		e.RevealCard(p[1])
		v.Advance(MatchDelay)
	}
	e.RevealCard(pairs[3][0])
	e.RevealCard(pairs[3][1])
	e.PauseGame()
	v.Advance(MatchDelay)

	assert.Equal(t, models.SessionStateCompleted, e.State())
}

func TestFinalScoreUsesElapsedAtResolution(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()

	for _, p := range pairs[:3] {
		e.RevealCard(p[0])
		e.RevealCard(p[1])
		v.Advance(MatchDelay)
	}
	// t=1.5s, elapsed=1. A tick lands at t=2s inside the last pair's window.
	v.Advance(300 * time.Millisecond)
	e.RevealCard(pairs[3][0])
	e.RevealCard(pairs[3][1])
	require.Equal(t, 1, e.Snapshot().Elapsed)

	v.Advance(MatchDelay)
	r, ok := e.Result()
	require.True(t, ok)
	assert.Equal(t, 2, r.Elapsed)
	assert.Equal(t, 1000-2*10, r.TimeBonus)
}

func TestResetCancelsTimers(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()
	e.RevealCard(0)
	e.RevealCard(1)

	e.ResetGame()
	assert.Zero(t, v.Pending())

	v.Advance(5 * time.Second)
	s := e.Snapshot()
	assert.Equal(t, models.SessionStateIdle, s.State)
	assert.Empty(t, s.Cards)
	assert.Zero(t, s.Elapsed)
	assert.False(t, e.RevealCard(0))
}

func TestRestartIgnoresStaleResolution(t *testing.T) {
	e, v := newTestEngine(t)
	e.StartGame()
	first := e.Snapshot().ID
	e.RevealCard(0)
	e.RevealCard(1)

	e.StartGame()
	assert.NotEqual(t, first, e.Snapshot().ID)
	require.True(t, e.RevealCard(0))
	require.True(t, e.RevealCard(1))

	// Only the new session's revert may touch cards 0 and 1.
	v.Advance(MismatchDelay / 2)
	s := e.Snapshot()
	assert.True(t, s.Cards[0].Revealed)
	assert.True(t, s.Cards[1].Revealed)
	assert.Equal(t, 2, s.Moves)
}

func TestEngineWithClockworkScheduler(t *testing.T) {
	fc := clockwork.NewFakeClock()
	cfg := Config{Symbols: []string{"A", "B", "C", "D"}, Scoring: DefaultScoring()}
	e, err := NewEngine(cfg, clock.NewScheduler(fc), fixedDealer{})
	require.NoError(t, err)

	var completed atomic.Bool
	e.OnCompleted(func(models.SessionResult) { completed.Store(true) })
	e.StartGame()

	for _, p := range pairs {
		require.True(t, e.RevealCard(p[0]))
		require.True(t, e.RevealCard(p[1]))
		fc.Advance(MatchDelay)
		require.Eventually(t, func() bool {
			return len(e.Snapshot().Pending) == 0
		}, 2*time.Second, time.Millisecond)
	}

	require.Eventually(t, completed.Load, 2*time.Second, time.Millisecond)
	assert.Equal(t, models.SessionStateCompleted, e.State())
}

func TestEngineWithRealDeck(t *testing.T) {
	v := clock.NewVirtual(epoch)
	e, err := NewEngine(DefaultConfig(), v, deck.NewSeeded(3))
	require.NoError(t, err)
	e.StartGame()

	cards := e.Snapshot().Cards
	require.Len(t, cards, 2*len(deck.DefaultSymbols))

	byValue := make(map[string][]int)
	for _, c := range cards {
		byValue[c.Value] = append(byValue[c.Value], c.ID)
	}
	for _, ids := range byValue {
		e.RevealCard(ids[0])
		e.RevealCard(ids[1])
		v.Advance(MatchDelay)
	}
	assert.Equal(t, models.SessionStateCompleted, e.State())
}
