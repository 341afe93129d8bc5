package rules

import (
	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
)

// Resolve decides the status of a game from one player's board. While the
// main pile has cards the game is in progress with the supplied turn flag;
// once it is empty the higher score wins and equal scores draw.
func Resolve(board game.Board, myTurn bool) game.Outcome {
	if board.MainPileRemaining > 0 {
		return game.InProgress(myTurn)
	}
	switch {
	case board.MyScore > board.OpponentScore:
		return game.Complete(game.Win)
	case board.MyScore < board.OpponentScore:
		return game.Complete(game.Lose)
	default:
		return game.Complete(game.Draw)
	}
}

// Finished reports whether the main pile of state has run out.
func Finished(state game.State) bool {
	return len(state.MainPile) == 0
}

// Project builds the view of state that the player in seat is allowed to
// see: their own hand, only the size of the opponent's hand, and only the
// top and depth of each discard pile. Scores and status are computed fresh.
func Project(state game.State, seat game.Seat) game.View {
	myPlays := state.Plays[seat].Clone()
	opPlays := state.Plays[seat.Other()].Clone()

	discards := make(map[cards.Color]game.PileTop)
	for color, pile := range state.Discards {
		if len(pile) == 0 {
			continue
		}
		discards[color] = game.PileTop{
			Top:   cards.New(color, pile[len(pile)-1]),
			Depth: len(pile),
		}
	}

	board := game.Board{
		MyPlays:           myPlays,
		OpponentPlays:     opPlays,
		Discards:          discards,
		MyScore:           Score(myPlays),
		OpponentScore:     Score(opPlays),
		MainPileRemaining: len(state.MainPile),
	}

	hand := make([]game.HandCard, len(state.Hands[seat]))
	for i, c := range state.Hands[seat] {
		hand[i] = game.HandCard{Card: c, Playable: Admissible(c, myPlays)}
	}

	return game.View{
		GameID:           state.ID,
		Hand:             hand,
		OpponentHandSize: len(state.Hands[seat.Other()]),
		Board:            board,
		Outcome:          Resolve(board, state.Turn.Belongs(seat)),
	}
}
