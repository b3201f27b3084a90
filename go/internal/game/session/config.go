package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/pairmatch/go/internal/game/deck"
)

// Resolution and tick timing. These are fixed by the game design.
const (
	MatchDelay    = 500 * time.Millisecond
	MismatchDelay = time.Second
	TickPeriod    = time.Second
)

// Scoring holds the point values used while playing and at completion.
type Scoring struct {
	MatchReward        int `yaml:"match_reward"`
	TimeBonusBase      int `yaml:"time_bonus_base"`
	TimeBonusPerSecond int `yaml:"time_bonus_per_second"`
	MoveBonusBase      int `yaml:"move_bonus_base"`
	MoveBonusPerMove   int `yaml:"move_bonus_per_move"`
}

// DefaultScoring returns the reference point values.
func DefaultScoring() Scoring {
	return Scoring{
		MatchReward:        100,
		TimeBonusBase:      1000,
		TimeBonusPerSecond: 10,
		MoveBonusBase:      500,
		MoveBonusPerMove:   10,
	}
}

// Bonuses returns the time and move bonuses for a finished board. Both floor at zero.
func (s Scoring) Bonuses(elapsed, moves int) (timeBonus, moveBonus int) {
	timeBonus = max(0, s.TimeBonusBase-elapsed*s.TimeBonusPerSecond)
	moveBonus = max(0, s.MoveBonusBase-moves*s.MoveBonusPerMove)
	return timeBonus, moveBonus
}

// Config configures an Engine.
type Config struct {
	Symbols []string `yaml:"symbols"`
	Scoring Scoring  `yaml:"scoring"`
}

// DefaultConfig returns the standard eight-pair board with reference scoring.
func DefaultConfig() Config {
	return Config{
		Symbols: append([]string(nil), deck.DefaultSymbols...),
		Scoring: DefaultScoring(),
	}
}

var (
	ErrNoSymbols       = errors.New("at least one symbol is required")
	ErrNegativeScoring = errors.New("scoring values must not be negative")
)

// Validate checks that the config can produce a playable board.
func (c Config) Validate() error {
	if len(c.Symbols) == 0 {
		return ErrNoSymbols
	}
	for name, v := range map[string]int{
		"match_reward":          c.Scoring.MatchReward,
		"time_bonus_base":       c.Scoring.TimeBonusBase,
		"time_bonus_per_second": c.Scoring.TimeBonusPerSecond,
		"move_bonus_base":       c.Scoring.MoveBonusBase,
		"move_bonus_per_move":   c.Scoring.MoveBonusPerMove,
	} {
		if v < 0 {
			return fmt.Errorf("%s: %w", name, ErrNegativeScoring)
		}
	}
	return nil
}
