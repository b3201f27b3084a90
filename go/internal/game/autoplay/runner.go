package autoplay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pairmatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionAborted = errors.New("session was reset before completion")
	ErrNoMove         = errors.New("strategy found no card to reveal")
)

// Engine is the subset of the session engine a Runner drives.
type Engine interface {
	StartGame()
	ResumeGame()
	RevealCard(id int) bool
	Snapshot() models.SessionSnapshot
	Result() (models.SessionResult, bool)
}

// Runner plays a session to completion using a Strategy.
type Runner struct {
	engine    Engine
	strat     Strategy
	clock     clockwork.Clock
	thinkTime time.Duration // pause between reveals and between polls
}

// NewRunner creates a Runner that waits thinkTime between actions on the given clock.
func NewRunner(engine Engine, strat Strategy, clock clockwork.Clock, thinkTime time.Duration) *Runner {
	return &Runner{
		engine:    engine,
		strat:     strat,
		clock:     clock,
		thinkTime: thinkTime,
	}
}

// Play starts a new session and reveals cards until the board is cleared.
func (r *Runner) Play(ctx context.Context) (models.SessionResult, error) {
	r.engine.StartGame()
	sessionID := r.engine.Snapshot().ID

	for {
		snap := r.engine.Snapshot()
		if snap.ID != sessionID {
			return models.SessionResult{}, ErrSessionAborted
		}

		switch snap.State {
		case models.SessionStateCompleted:
			result, _ := r.engine.Result()
			log.Info().
				Str("session_id", sessionID.String()).
				Int("score", result.Score).
				Int("moves", result.Moves).
				Msg("autoplay finished session")
			return result, nil
		case models.SessionStateIdle:
			return models.SessionResult{}, ErrSessionAborted
		case models.SessionStatePaused:
			r.engine.ResumeGame()
		case models.SessionStatePlaying:
			// Strategies see the board even while a pair resolves so they can remember it.
			id, ok := r.strat.NextReveal(snap)
			switch {
			case ok:
				if !r.engine.RevealCard(id) {
					log.Debug().Str("session_id", sessionID.String()).Int("card", id).Msg("reveal ignored")
				}
			case len(snap.Pending) < 2:
				return models.SessionResult{}, fmt.Errorf("session %s: %w", sessionID, ErrNoMove)
			}
		}

		select {
		case <-ctx.Done():
			return models.SessionResult{}, ctx.Err()
		case <-r.clock.After(r.thinkTime):
		}
	}
}
