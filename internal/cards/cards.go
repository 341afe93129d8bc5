// Package cards defines the playing cards of an expedition game: five
// colors, nine numbered ranks and the wager card, plus the full deck and a
// seedable shuffler used for the initial deal.
package cards

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Color is one of the five expedition colors.
type Color int

const (
	Red Color = iota
	Green
	White
	Blue
	Yellow
)

// Colors lists every color in canonical order.
var Colors = [...]Color{Red, Green, White, Blue, Yellow}

var colorNames = [...]string{"red", "green", "white", "blue", "yellow"}

// Valid reports whether c is one of the five colors.
func (c Color) Valid() bool {
	return c >= Red && c <= Yellow
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// ParseColor converts a lowercase color name into a Color.
func ParseColor(s string) (Color, error) {
	for i, name := range colorNames {
		if strings.EqualFold(s, name) {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

// MarshalText encodes the color as its lowercase name. Colors are used as
// JSON object keys, so the text form is the one that matters.
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid color %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a lowercase color name.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value is the rank of a card. Wager is the lowest rank and may repeat
// within a column; Two through Ten carry their face value.
type Value int

const (
	Wager Value = 1
	Two   Value = 2
	Three Value = 3
	Four  Value = 4
	Five  Value = 5
	Six   Value = 6
	Seven Value = 7
	Eight Value = 8
	Nine  Value = 9
	Ten   Value = 10
)

// Valid reports whether v is Wager or one of Two..Ten.
func (v Value) Valid() bool {
	return v >= Wager && v <= Ten
}

// IsWager reports whether v is the wager rank.
func (v Value) IsWager() bool {
	return v == Wager
}

// Rank returns the numeric face value used for scoring. Wagers have no
// face value and return 0.
func (v Value) Rank() int {
	if v.IsWager() {
		return 0
	}
	return int(v)
}

func (v Value) String() string {
	if v.IsWager() {
		return "wager"
	}
	return fmt.Sprintf("%d", int(v))
}

// UnmarshalJSON accepts the numeric form and rejects ranks outside 1..10.
func (v *Value) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("card value: %w", err)
	}
	if !Value(n).Valid() {
		return fmt.Errorf("card value %d out of range", n)
	}
	*v = Value(n)
	return nil
}

// Card is an immutable color and value pair.
type Card struct {
	Color Color `json:"color"`
	Value Value `json:"value"`
}

// New returns the card of the given color and value.
func New(color Color, value Value) Card {
	return Card{Color: color, Value: value}
}

// Valid reports whether both the color and the value are in range.
func (c Card) Valid() bool {
	return c.Color.Valid() && c.Value.Valid()
}

func (c Card) String() string {
	return c.Color.String() + " " + c.Value.String()
}
