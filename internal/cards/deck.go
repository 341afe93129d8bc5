package cards

import (
	"math/rand/v2"
)

// WagersPerColor is the number of wager cards of each color in a deck.
const WagersPerColor = 3

// DeckSize is the number of cards in a full deck.
const DeckSize = len(Colors) * (9 + WagersPerColor)

var numbered = [...]Value{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten}

// NewDeck returns an unshuffled full deck: for each color the numbered
// cards Two..Ten and three wagers.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, value := range numbered {
		for _, color := range Colors {
			deck = append(deck, New(color, value))
		}
	}
	for i := 0; i < WagersPerColor; i++ {
		for _, color := range Colors {
			deck = append(deck, New(color, Wager))
		}
	}
	return deck
}

// Shuffler randomizes a deck in place and supplies the coin flip used to
// pick the first player.
type Shuffler interface {
	Shuffle(deck []Card)
	CoinFlip() bool
}

// SeededShuffler is a deterministic Shuffler: two shufflers created with
// the same seed produce identical decks and coin flips.
type SeededShuffler struct {
	rng  *rand.Rand
	seed uint64
}

// NewSeededShuffler returns a PCG-backed shuffler for seed.
func NewSeededShuffler(seed uint64) *SeededShuffler {
	return &SeededShuffler{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// Seed returns the seed the shuffler was created with.
func (s *SeededShuffler) Seed() uint64 {
	return s.seed
}

// Shuffle permutes deck using Fisher-Yates.
func (s *SeededShuffler) Shuffle(deck []Card) {
	s.rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// CoinFlip returns a fair random boolean.
func (s *SeededShuffler) CoinFlip() bool {
	return s.rng.IntN(2) == 0
}

// SeedSource produces the seed for each new deal.
type SeedSource func() uint64

// RandomSeed draws a fresh seed from the runtime's random source.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// FixedSeeds returns a SeedSource that yields seeds in order and then
// repeats the last one. Used to replay recorded deals.
func FixedSeeds(seeds ...uint64) SeedSource {
	i := 0
	return func() uint64 {
		if len(seeds) == 0 {
			return 0
		}
		seed := seeds[i]
		if i < len(seeds)-1 {
			i++
		}
		return seed
	}
}
