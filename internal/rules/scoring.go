package rules

import (
	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
)

const (
	expeditionCost  = 20
	bonusColumnSize = 8
	longColumnBonus = 20
	baseMultiplier  = 1
)

// Score totals the column scores of one player's play history.
func Score(plays game.Columns) int {
	total := 0
	for _, column := range plays {
		total += ScoreColumn(column)
	}
	return total
}

// ScoreColumn scores a single color. An empty column is worth nothing.
// Otherwise the ranks are summed onto a base of -20, each wager raises the
// multiplier by one, the sum is multiplied, and only then a column of 8 or
// more cards earns a flat 20 bonus.
func ScoreColumn(column []cards.Value) int {
	if len(column) == 0 {
		return 0
	}

	score := -expeditionCost
	multiplier := baseMultiplier
	for _, v := range column {
		if v.IsWager() {
			multiplier++
			continue
		}
		score += v.Rank()
	}

	bonus := 0
	if len(column) >= bonusColumnSize {
		bonus = longColumnBonus
	}
	return score*multiplier + bonus
}
