// Package rules is the rules engine: pure functions that validate and apply
// a move, deal a new game, compute scores and decide the end of a game.
// Nothing here touches storage or concurrency.
package rules

import (
	"golang.org/x/exp/slices"

	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
)

// Admissible reports whether card may be placed on its color's column in
// plays: the column is empty or card is at least its top. Wagers are the
// lowest rank, so they stack on each other but never follow a number.
func Admissible(card cards.Card, plays game.Columns) bool {
	column := plays[card.Color]
	if len(column) == 0 {
		return true
	}
	return card.Value >= column[len(column)-1]
}

// PlayableCards returns the indexes of the cards in hand that are
// admissible on plays.
func PlayableCards(hand []cards.Card, plays game.Columns) []int {
	var allowed []int
	for i, c := range hand {
		if Admissible(c, plays) {
			allowed = append(allowed, i)
		}
	}
	return allowed
}

// Validate checks play against state for the player in seat and returns
// the index of the played card in that player's hand. Checks run in a
// fixed order and the first failure is returned:
//
//  1. it must be the player's turn
//  2. the card must be in the player's hand
//  3. a card played onto the board must be admissible on its column
//  4. a discarded card can't be drawn back in the same move
//  5. a discard pile drawn from must not be empty
func Validate(play game.Play, state game.State, seat game.Seat) (int, error) {
	if !state.Turn.Belongs(seat) {
		return -1, game.ErrNotYourTurn
	}

	idx := slices.Index(state.Hands[seat], play.Card)
	if idx < 0 {
		return -1, game.ErrCardNotInHand
	}

	if play.Target == game.TargetBoard && !Admissible(play.Card, state.Plays[seat]) {
		return -1, game.ErrCantPlayDecreasingCardValue
	}

	if play.Draw.FromDiscard {
		if play.Target == game.TargetDiscard && play.Draw.Color == play.Card.Color {
			return -1, game.ErrCantRedrawCardJustPlayed
		}
		if len(state.Discards[play.Draw.Color]) == 0 {
			return -1, game.ErrNeutralDrawPileEmpty
		}
	}

	return idx, nil
}

// Apply validates play and returns the state after it: the card leaves the
// hand, lands on its target, one card is drawn and the turn flips. The
// input state is never modified; on error no change is visible anywhere.
func Apply(play game.Play, state game.State, seat game.Seat) (game.State, error) {
	idx, err := Validate(play, state, seat)
	if err != nil {
		return game.State{}, err
	}

	next := state.Clone()

	next.Hands[seat] = slices.Delete(next.Hands[seat], idx, idx+1)

	target := next.Plays[seat]
	if play.Target == game.TargetDiscard {
		target = next.Discards
	}
	target[play.Card.Color] = append(target[play.Card.Color], play.Card.Value)

	drawn, ok := draw(&next, play.Draw)
	if !ok {
		return game.State{}, game.Impossible("draw from " + describeSource(play.Draw))
	}
	next.Hands[seat] = append(next.Hands[seat], drawn)

	next.Turn = next.Turn.Flip()
	return next, nil
}

// draw pops the top card of the chosen pile.
func draw(state *game.State, src game.DrawSource) (cards.Card, bool) {
	if !src.FromDiscard {
		n := len(state.MainPile)
		if n == 0 {
			return cards.Card{}, false
		}
		c := state.MainPile[n-1]
		state.MainPile = state.MainPile[:n-1]
		return c, true
	}

	pile := state.Discards[src.Color]
	n := len(pile)
	if n == 0 {
		return cards.Card{}, false
	}
	value := pile[n-1]
	if n == 1 {
		delete(state.Discards, src.Color)
	} else {
		state.Discards[src.Color] = pile[:n-1]
	}
	return cards.New(src.Color, value), true
}

func describeSource(src game.DrawSource) string {
	if src.FromDiscard {
		return src.Color.String() + " discard pile"
	}
	return "main pile"
}
