package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/pairmatch/go/internal/game/clock"
	"github.com/mcdev12/pairmatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Dealer produces the cards for a new board.
type Dealer interface {
	Deal(symbols []string) []models.Card
}

// CompletionHandler is notified once per session when the board is cleared.
type CompletionHandler = func(result models.SessionResult)

// Engine owns a single game session. Every operation and every timer callback
// runs under the same lock, so the session has one logical thread of control.
// Illegal operations are ignored rather than reported.
type Engine struct {
	cfg    Config
	sched  clock.Scheduler
	dealer Dealer

	mu      sync.Mutex
	id      uuid.UUID
	gen     uint64 // bumped on start/reset; stale resolutions compare against it
	tickSeq uint64 // bumped each time the ticker starts
	state   models.SessionState
	cards   []models.Card
	elapsed int
	moves   int
	score   int
	pending []int
	result  *models.SessionResult

	stopTick    clock.Cancel
	stopResolve clock.Cancel

	handlers []CompletionHandler
}

// NewEngine creates an idle engine.
func NewEngine(cfg Config, sched clock.Scheduler, dealer Dealer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	return &Engine{
		cfg:    cfg,
		sched:  sched,
		dealer: dealer,
		state:  models.SessionStateIdle,
	}, nil
}

// OnCompleted registers a handler for the Completed transition.
// Handlers run after the engine lock is released.
func (e *Engine) OnCompleted(fn CompletionHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, fn)
}

// StartGame deals a fresh board and starts the elapsed-time ticker.
// Any session in progress is abandoned along with its timers.
func (e *Engine) StartGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelTimersLocked()
	e.gen++
	e.id = uuid.New()
	e.cards = e.dealer.Deal(e.cfg.Symbols)
	e.elapsed, e.moves, e.score = 0, 0, 0
	e.pending = nil
	e.result = nil
	e.state = models.SessionStatePlaying
	e.startTickerLocked()

	log.Info().
		Str("session_id", e.id.String()).
		Int("cards", len(e.cards)).
		Msg("session started")
}

// PauseGame stops the ticker. A pair resolution already scheduled still fires.
func (e *Engine) PauseGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != models.SessionStatePlaying {
		return
	}
	e.state = models.SessionStatePaused
	e.stopTickerLocked()

	log.Debug().Str("session_id", e.id.String()).Int("elapsed", e.elapsed).Msg("session paused")
}

// ResumeGame restarts the ticker without resetting elapsed time.
func (e *Engine) ResumeGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != models.SessionStatePaused {
		return
	}
	e.state = models.SessionStatePlaying
	e.startTickerLocked()

	log.Debug().Str("session_id", e.id.String()).Int("elapsed", e.elapsed).Msg("session resumed")
}

// ResetGame aborts the session from any state and cancels every outstanding timer.
func (e *Engine) ResetGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelTimersLocked()
	e.gen++
	prev := e.id
	e.id = uuid.Nil
	e.cards = nil
	e.elapsed, e.moves, e.score = 0, 0, 0
	e.pending = nil
	e.result = nil
	e.state = models.SessionStateIdle

	log.Debug().Str("session_id", prev.String()).Msg("session reset")
}

// RevealCard flips a card face up and reports whether the reveal was accepted.
// A second face-up card starts the timed resolution of the pair.
func (e *Engine) RevealCard(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != models.SessionStatePlaying {
		return false
	}
	if id < 0 || id >= len(e.cards) {
		return false
	}
	card := &e.cards[id]
	if card.Revealed || card.Matched || len(e.pending) >= 2 {
		return false
	}

	card.Revealed = true
	e.moves++
	e.pending = append(e.pending, id)

	if len(e.pending) == 2 {
		e.beginResolutionLocked()
	}
	return true
}

// Snapshot returns a copy of the session for presentation.
func (e *Engine) Snapshot() models.SessionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := models.SessionSnapshot{
		ID:      e.id,
		State:   e.state,
		Elapsed: e.elapsed,
		Moves:   e.moves,
		Score:   e.score,
	}
	if e.cards != nil {
		snap.Cards = append([]models.Card(nil), e.cards...)
	}
	if len(e.pending) > 0 {
		snap.Pending = append([]int(nil), e.pending...)
	}
	return snap
}

// State returns the current lifecycle state.
func (e *Engine) State() models.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Result returns the final result once the session is Completed.
func (e *Engine) Result() (models.SessionResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result == nil {
		return models.SessionResult{}, false
	}
	return *e.result, true
}

func (e *Engine) beginResolutionLocked() {
	a, b := e.pending[0], e.pending[1]
	gen := e.gen

	if e.cards[a].Value == e.cards[b].Value {
		e.stopResolve = e.sched.After(MatchDelay, func() { e.confirmMatch(gen, a, b) })
		return
	}
	e.stopResolve = e.sched.After(MismatchDelay, func() { e.revertMismatch(gen, a, b) })
}

func (e *Engine) confirmMatch(gen uint64, a, b int) {
	e.mu.Lock()
	if !e.ownsPairLocked(gen, a, b) {
		e.mu.Unlock()
		return
	}

	e.stopResolve = nil
	e.cards[a].Matched = true
	e.cards[b].Matched = true
	e.pending = nil
	e.score += e.cfg.Scoring.MatchReward

	log.Debug().
		Str("session_id", e.id.String()).
		Int("first", a).
		Int("second", b).
		Int("score", e.score).
		Msg("pair matched")

	var result *models.SessionResult
	if e.allMatchedLocked() {
		result = e.completeLocked()
	}
	handlers := append([]CompletionHandler(nil), e.handlers...)
	e.mu.Unlock()

	if result != nil {
		for _, fn := range handlers {
			fn(*result)
		}
	}
}

func (e *Engine) revertMismatch(gen uint64, a, b int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ownsPairLocked(gen, a, b) {
		return
	}
	e.stopResolve = nil
	e.cards[a].Revealed = false
	e.cards[b].Revealed = false
	e.pending = nil
}

// ownsPairLocked reports whether a resolution callback still belongs to the live session.
func (e *Engine) ownsPairLocked(gen uint64, a, b int) bool {
	return gen == e.gen && len(e.pending) == 2 && e.pending[0] == a && e.pending[1] == b
}

func (e *Engine) allMatchedLocked() bool {
	for _, c := range e.cards {
		if !c.Matched {
			return false
		}
	}
	return true
}

// completeLocked finalizes the score from the state at resolution time.
func (e *Engine) completeLocked() *models.SessionResult {
	e.stopTickerLocked()
	e.state = models.SessionStateCompleted

	timeBonus, moveBonus := e.cfg.Scoring.Bonuses(e.elapsed, e.moves)
	matchScore := e.score
	e.score = matchScore + timeBonus + moveBonus

	e.result = &models.SessionResult{
		SessionID:   e.id,
		Score:       e.score,
		MatchScore:  matchScore,
		TimeBonus:   timeBonus,
		MoveBonus:   moveBonus,
		Elapsed:     e.elapsed,
		Moves:       e.moves,
		CompletedAt: e.sched.Now(),
	}

	log.Info().
		Str("session_id", e.id.String()).
		Int("score", e.score).
		Int("elapsed", e.elapsed).
		Int("moves", e.moves).
		Msg("session completed")

	return e.result
}

func (e *Engine) startTickerLocked() {
	if e.stopTick != nil {
		return
	}
	e.tickSeq++
	seq := e.tickSeq
	e.stopTick = e.sched.Every(TickPeriod, func() { e.tick(seq) })
}

func (e *Engine) stopTickerLocked() {
	if e.stopTick != nil {
		e.stopTick()
		e.stopTick = nil
	}
}

func (e *Engine) tick(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seq != e.tickSeq || e.state != models.SessionStatePlaying {
		return
	}
	e.elapsed++
}

func (e *Engine) cancelTimersLocked() {
	e.stopTickerLocked()
	if e.stopResolve != nil {
		e.stopResolve()
		e.stopResolve = nil
	}
}
