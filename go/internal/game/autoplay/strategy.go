package autoplay

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pairmatch/go/internal/models"
)

type Strategy interface {
	// NextReveal picks the card to flip given the visible board.
	// ok is false when no card can be flipped.
	NextReveal(snap models.SessionSnapshot) (id int, ok bool)
}

// RandomStrategy flips any face-down card at random.
type RandomStrategy struct {
	rng *rand.Rand
}

// NewRandomStrategy constructs a RandomStrategy with its own seed.
func NewRandomStrategy() *RandomStrategy {
	return NewRandomStrategyWithSeed(time.Now().UnixNano())
}

// NewRandomStrategyWithSeed constructs a reproducible RandomStrategy.
func NewRandomStrategyWithSeed(seed int64) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewSource(seed))}
}

// NextReveal implements Strategy.NextReveal
func (s *RandomStrategy) NextReveal(snap models.SessionSnapshot) (int, bool) {
	if len(snap.Pending) >= 2 {
		return 0, false
	}
	candidates := faceDown(snap.Cards, nil)
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[s.rng.Intn(len(candidates))], true
}

// MemoryStrategy remembers every value it has seen and plays known pairs first.
type MemoryStrategy struct {
	rng     *rand.Rand
	session uuid.UUID
	known   map[int]string
}

// NewMemoryStrategy constructs a MemoryStrategy with its own seed.
func NewMemoryStrategy() *MemoryStrategy {
	return NewMemoryStrategyWithSeed(time.Now().UnixNano())
}

// NewMemoryStrategyWithSeed constructs a reproducible MemoryStrategy.
func NewMemoryStrategyWithSeed(seed int64) *MemoryStrategy {
	return &MemoryStrategy{
		rng:   rand.New(rand.NewSource(seed)),
		known: make(map[int]string),
	}
}

// NextReveal implements Strategy.NextReveal
func (s *MemoryStrategy) NextReveal(snap models.SessionSnapshot) (int, bool) {
	if snap.ID != s.session {
		// new board, forget everything
		s.known = make(map[int]string)
		s.session = snap.ID
	}
	s.observe(snap.Cards)

	switch len(snap.Pending) {
	case 0:
		if a, _, ok := s.knownPair(snap.Cards); ok {
			return a, true
		}
	case 1:
		open := snap.Pending[0]
		if partner, ok := s.knownPartner(snap.Cards, open); ok {
			return partner, true
		}
	default:
		return 0, false
	}

	if unknown := faceDown(snap.Cards, s.known); len(unknown) > 0 {
		return unknown[s.rng.Intn(len(unknown))], true
	}
	if rest := faceDown(snap.Cards, nil); len(rest) > 0 {
		return rest[s.rng.Intn(len(rest))], true
	}
	return 0, false
}

func (s *MemoryStrategy) observe(cards []models.Card) {
	for _, c := range cards {
		if c.Revealed {
			s.known[c.ID] = c.Value
		}
	}
}

// knownPair finds two face-down unmatched cards already seen with the same value.
func (s *MemoryStrategy) knownPair(cards []models.Card) (int, int, bool) {
	first := make(map[string]int)
	for _, c := range cards {
		if c.Revealed || c.Matched {
			continue
		}
		v, seen := s.known[c.ID]
		if !seen {
			continue
		}
		if other, ok := first[v]; ok {
			return other, c.ID, true
		}
		first[v] = c.ID
	}
	return 0, 0, false
}

func (s *MemoryStrategy) knownPartner(cards []models.Card, open int) (int, bool) {
	want := cards[open].Value
	for _, c := range cards {
		if c.ID == open || c.Revealed || c.Matched {
			continue
		}
		if v, seen := s.known[c.ID]; seen && v == want {
			return c.ID, true
		}
	}
	return 0, false
}

// faceDown lists cards that can be flipped, skipping any whose ID is in exclude.
func faceDown(cards []models.Card, exclude map[int]string) []int {
	var ids []int
	for _, c := range cards {
		if c.Revealed || c.Matched {
			continue
		}
		if _, skip := exclude[c.ID]; skip {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids
}
