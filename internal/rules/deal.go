package rules

import (
	"fmt"

	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
)

// Deal shuffles a fresh deck with shuffler and deals it: one card at a time
// from the top, host first, until each hand holds game.HandSize cards. The
// rest becomes the main pile and a coin flip picks who moves first.
func Deal(id game.ID, seed uint64, shuffler cards.Shuffler) (game.State, error) {
	deck := cards.NewDeck()
	shuffler.Shuffle(deck)

	var hands [2][]cards.Card
	hands[game.Host] = make([]cards.Card, 0, game.HandSize)
	hands[game.Guest] = make([]cards.Card, 0, game.HandSize)

	for i := 0; i < game.HandSize; i++ {
		for _, seat := range []game.Seat{game.Host, game.Guest} {
			if len(deck) == 0 {
				return game.State{}, fmt.Errorf("deal %s: deck exhausted", id)
			}
			top := deck[len(deck)-1]
			deck = deck[:len(deck)-1]
			hands[seat] = append(hands[seat], top)
		}
	}

	turn := game.GuestTurn
	if shuffler.CoinFlip() {
		turn = game.HostTurn
	}

	return game.State{
		ID:       id,
		Hands:    hands,
		Plays:    [2]game.Columns{{}, {}},
		Discards: game.Columns{},
		MainPile: deck,
		Turn:     turn,
		Seed:     seed,
	}, nil
}
