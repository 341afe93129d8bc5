package game

import (
	"github.com/dreamware/expedition/internal/cards"
)

// Result is the final outcome of a completed game from one player's side.
type Result string

const (
	Win  Result = "win"
	Lose Result = "lose"
	Draw Result = "draw"
)

// Outcome is the status of a game as seen by one player. It is derived
// from the board on every read and never stored.
type Outcome struct {
	Result   Result `json:"result,omitempty"`
	Complete bool   `json:"complete"`
	MyTurn   bool   `json:"my_turn"`
}

// InProgress builds the outcome of a game that is still being played.
func InProgress(myTurn bool) Outcome {
	return Outcome{MyTurn: myTurn}
}

// Complete builds the outcome of a finished game.
func Complete(result Result) Outcome {
	return Outcome{Complete: true, Result: result}
}

// HandCard is a card in the requester's hand together with whether it can
// currently be played onto the requester's own column.
type HandCard struct {
	cards.Card
	Playable bool `json:"playable"`
}

// PileTop is the visible part of a discard pile: its top card and depth.
// The order of the cards underneath stays hidden.
type PileTop struct {
	Top   cards.Card `json:"top"`
	Depth int        `json:"depth"`
}

// Board is the public part of a game as seen from one seat.
type Board struct {
	MyPlays           Columns                 `json:"my_plays"`
	OpponentPlays     Columns                 `json:"opponent_plays"`
	Discards          map[cards.Color]PileTop `json:"discards"`
	MyScore           int                     `json:"my_score"`
	OpponentScore     int                     `json:"opponent_score"`
	MainPileRemaining int                     `json:"main_pile_remaining"`
}

// View is the player-scoped projection of a game returned by GetGameState.
type View struct {
	Board            Board      `json:"board"`
	GameID           ID         `json:"game_id"`
	Hand             []HandCard `json:"hand"`
	Outcome          Outcome    `json:"status"`
	OpponentHandSize int        `json:"opponent_hand_size"`
}
