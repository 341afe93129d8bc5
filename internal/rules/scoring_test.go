package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
)

// values converts small integers into card values; 1 is a wager.
func values(ns ...int) []cards.Value {
	out := make([]cards.Value, len(ns))
	for i, n := range ns {
		out[i] = cards.Value(n)
	}
	return out
}

func TestScoreColumn(t *testing.T) {
	tests := []struct {
		name   string
		column []int
		want   int
	}{
		{"empty", nil, 0},
		{"single two", []int{2}, -18},
		{"single three", []int{3}, -17},
		{"single ten", []int{10}, -10},
		{"one wager", []int{1}, -40},
		{"two wagers", []int{1, 1}, -60},
		{"three wagers", []int{1, 1, 1}, -80},
		{"wager and five", []int{1, 5}, -30},
		{"zero sum", []int{2, 3, 7, 8}, 0},
		{"zero sum one wager", []int{2, 3, 7, 8, 1}, 0},
		{"zero sum three wagers", []int{2, 3, 7, 8, 1, 1, 1}, 0},
		{"positive", []int{6, 8, 10}, 4},
		{"positive one wager", []int{6, 8, 10, 1}, 8},
		{"positive three wagers", []int{6, 8, 10, 1, 1, 1}, 16},
		{"negative", []int{6, 10}, -4},
		{"negative two wagers", []int{6, 10, 1, 1}, -12},
		{"seven cards no bonus", []int{2, 3, 4, 5, 6, 7, 8}, 15},
		{"eight cards bonus", []int{2, 3, 4, 5, 6, 7, 8, 9}, 44},
		{"bonus after multiplier", []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, 68},
		{"two wagers long column", []int{1, 1, 3, 4, 5, 7, 8, 9}, 68},
		{"full color", []int{1, 1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 156},
		{"ascending odd", []int{3, 5, 7, 9}, 4},
		{"wagers then middling", []int{1, 1, 4, 5, 6}, -15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreColumn(values(tt.column...)))
		})
	}
}

func TestScore(t *testing.T) {
	t.Run("no plays", func(t *testing.T) {
		assert.Equal(t, 0, Score(game.Columns{}))
		assert.Equal(t, 0, Score(nil))
	})

	t.Run("colors are scored independently", func(t *testing.T) {
		plays := game.Columns{
			cards.White:  values(3, 5, 7, 9),
			cards.Yellow: values(1, 1, 4, 5, 6),
			cards.Green:  values(1, 1, 3, 4, 5, 7, 8, 9),
			cards.Red:    values(1, 5),
			cards.Blue:   values(3),
		}
		assert.Equal(t, 4-15+68-30-17, Score(plays))
		assert.Equal(t, 10, Score(plays))
	})

	t.Run("worst possible score", func(t *testing.T) {
		plays := game.Columns{}
		for _, c := range cards.Colors {
			plays[c] = values(1, 1, 1)
		}
		assert.Equal(t, -400, Score(plays))
	})

	t.Run("empty column inside map counts zero", func(t *testing.T) {
		plays := game.Columns{cards.Red: {}, cards.Blue: values(10)}
		assert.Equal(t, -10, Score(plays))
	})
}
