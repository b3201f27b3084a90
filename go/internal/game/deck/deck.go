package deck

import (
	"math/rand"
	"time"

	"github.com/mcdev12/pairmatch/go/internal/models"
)

// DefaultSymbols is the standard eight-pair board.
var DefaultSymbols = []string{"apple", "banana", "cherry", "grape", "lemon", "melon", "orange", "pear"}

// Generator deals shuffled pairable decks.
type Generator struct {
	rng *rand.Rand
}

// New constructs a Generator around the given random source.
func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NewSeeded constructs a Generator whose shuffles are reproducible for a given seed.
func NewSeeded(seed int64) *Generator {
	return New(rand.New(rand.NewSource(seed)))
}

// NewRandom constructs a Generator seeded from the wall clock.
func NewRandom() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// Deal returns every distinct symbol exactly twice in uniformly random order.
// Card IDs are their position in the returned slice.
func (g *Generator) Deal(symbols []string) []models.Card {
	distinct := dedupe(symbols)
	values := make([]string, 0, len(distinct)*2)
	for _, s := range distinct {
		values = append(values, s, s)
	}

	g.rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	cards := make([]models.Card, len(values))
	for i, v := range values {
		cards[i] = models.Card{ID: i, Value: v}
	}
	return cards
}

// dedupe keeps the first occurrence of each symbol.
func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
