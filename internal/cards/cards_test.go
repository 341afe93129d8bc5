package cards

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDeck verifies deck composition: 60 cards, 12 per color, 3 wagers per color
func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)
	assert.Equal(t, 60, DeckSize)

	perColor := make(map[Color]int)
	wagers := make(map[Color]int)
	seen := make(map[Card]int)
	for _, c := range deck {
		require.True(t, c.Valid(), "invalid card %v", c)
		perColor[c.Color]++
		if c.Value.IsWager() {
			wagers[c.Color]++
		}
		seen[c]++
	}

	for _, color := range Colors {
		assert.Equal(t, 12, perColor[color], "color %s", color)
		assert.Equal(t, WagersPerColor, wagers[color], "wagers of %s", color)
		for _, v := range numbered {
			assert.Equal(t, 1, seen[New(color, v)], "card %s %s", color, v)
		}
	}
}

func TestSeededShuffler(t *testing.T) {
	t.Run("same seed produces same deck", func(t *testing.T) {
		d1, d2 := NewDeck(), NewDeck()
		s1, s2 := NewSeededShuffler(5), NewSeededShuffler(5)
		s1.Shuffle(d1)
		s2.Shuffle(d2)
		assert.Equal(t, d1, d2)
		assert.Equal(t, s1.CoinFlip(), s2.CoinFlip())
		assert.Equal(t, uint64(5), s1.Seed())
	})

	t.Run("different seeds produce different decks", func(t *testing.T) {
		d1, d2 := NewDeck(), NewDeck()
		NewSeededShuffler(1).Shuffle(d1)
		NewSeededShuffler(2).Shuffle(d2)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("shuffle is a permutation", func(t *testing.T) {
		deck := NewDeck()
		NewSeededShuffler(42).Shuffle(deck)
		assert.ElementsMatch(t, NewDeck(), deck)
	})
}

func TestFixedSeeds(t *testing.T) {
	next := FixedSeeds(7, 9)
	assert.Equal(t, uint64(7), next())
	assert.Equal(t, uint64(9), next())
	assert.Equal(t, uint64(9), next())

	assert.Equal(t, uint64(0), FixedSeeds()())
}

func TestColorText(t *testing.T) {
	for _, c := range Colors {
		text, err := c.MarshalText()
		require.NoError(t, err)

		var back Color
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}

	_, err := ParseColor("purple")
	assert.Error(t, err)

	_, err = Color(9).MarshalText()
	assert.Error(t, err)
}

func TestCardJSON(t *testing.T) {
	data, err := json.Marshal(New(Blue, Wager))
	require.NoError(t, err)
	assert.JSONEq(t, `{"color":"blue","value":1}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal([]byte(`{"color":"yellow","value":7}`), &c))
	assert.Equal(t, New(Yellow, Seven), c)

	assert.Error(t, json.Unmarshal([]byte(`{"color":"yellow","value":11}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"color":"mauve","value":3}`), &c))
}

func TestValueRank(t *testing.T) {
	assert.Equal(t, 0, Wager.Rank())
	assert.Equal(t, 2, Two.Rank())
	assert.Equal(t, 10, Ten.Rank())
	assert.Equal(t, "wager", Wager.String())
	assert.Equal(t, "8", Eight.String())
	assert.False(t, Value(0).Valid())
	assert.False(t, Value(11).Valid())
}
