// Package game holds the data model shared by the rules engine, the session
// store and the shard workers: game metadata, the full server-side game
// state, play requests and the player-scoped view returned to callers.
package game

import (
	"fmt"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dreamware/expedition/internal/cards"
)

// HandSize is the number of cards each player holds at turn boundaries.
const HandSize = 8

// ID identifies a game session. It is both the routing key and the
// session store primary key.
type ID = string

// Status is the lifecycle status recorded in GameMetadata.
type Status string

const (
	// StatusAwaitingGuest means the game is hosted but nobody joined yet
	StatusAwaitingGuest Status = "awaiting_guest"
	// StatusInProgress means both seats are filled and cards were dealt
	StatusInProgress Status = "in_progress"
	// StatusCompleted means the main draw pile ran out
	StatusCompleted Status = "completed"
)

// Metadata describes who is in a game and where it is in its lifecycle.
// The guest is attached exactly once.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	ID        ID        `json:"game_id"`
	HostID    string    `json:"host_id"`
	GuestID   string    `json:"guest_id,omitempty"`
	Status    Status    `json:"status"`
}

// Matched reports whether a guest has joined.
func (m Metadata) Matched() bool {
	return m.GuestID != ""
}

// SeatOf resolves playerID to a seat in this game.
func (m Metadata) SeatOf(playerID string) (Seat, bool) {
	switch {
	case playerID == "":
		return 0, false
	case playerID == m.HostID:
		return Host, true
	case playerID == m.GuestID:
		return Guest, true
	}
	return 0, false
}

// Involves reports whether playerID holds either seat.
func (m Metadata) Involves(playerID string) bool {
	_, ok := m.SeatOf(playerID)
	return ok
}

// Seat is the position a player occupies in a game.
type Seat int

const (
	Host Seat = iota
	Guest
)

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	if s == Host {
		return Guest
	}
	return Host
}

func (s Seat) String() string {
	if s == Host {
		return "host"
	}
	return "guest"
}

// Turn marks whose move is next.
type Turn string

const (
	HostTurn  Turn = "host"
	GuestTurn Turn = "guest"
)

// TurnOf returns the turn belonging to seat.
func TurnOf(s Seat) Turn {
	if s == Host {
		return HostTurn
	}
	return GuestTurn
}

// Flip returns the other player's turn.
func (t Turn) Flip() Turn {
	if t == HostTurn {
		return GuestTurn
	}
	return HostTurn
}

// Belongs reports whether it is seat's turn.
func (t Turn) Belongs(s Seat) bool {
	return t == TurnOf(s)
}

// Columns maps each color to an ordered pile of values. The last element
// is the top of the pile.
type Columns map[cards.Color][]cards.Value

// Clone returns a deep copy. The copy of a nil Columns is empty, not nil.
func (c Columns) Clone() Columns {
	out := make(Columns, len(c))
	for color, values := range c {
		out[color] = slices.Clone(values)
	}
	return out
}

// Top returns the top value of color's pile.
func (c Columns) Top(color cards.Color) (cards.Value, bool) {
	values := c[color]
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

// Len returns the total number of values across all colors.
func (c Columns) Len() int {
	n := 0
	for _, values := range c {
		n += len(values)
	}
	return n
}

// SortedColors returns the colors present in c in canonical order.
func (c Columns) SortedColors() []cards.Color {
	colors := maps.Keys(c)
	slices.Sort(colors)
	return colors
}

// State is the complete server-side state of a dealt game. Hands and Plays
// are indexed by Seat.
type State struct {
	ID       ID              `json:"game_id"`
	Hands    [2][]cards.Card `json:"hands"`
	Plays    [2]Columns      `json:"plays"`
	Discards Columns         `json:"discards"`
	MainPile []cards.Card    `json:"main_pile"`
	Turn     Turn            `json:"turn"`
	Seed     uint64          `json:"seed"`
}

// Clone returns a deep copy that shares no slices or maps with s.
func (s State) Clone() State {
	out := s
	for i := range s.Hands {
		out.Hands[i] = slices.Clone(s.Hands[i])
		out.Plays[i] = s.Plays[i].Clone()
	}
	out.Discards = s.Discards.Clone()
	out.MainPile = slices.Clone(s.MainPile)
	return out
}

// Cards returns every card in the state: both hands, both play histories,
// every discard pile and the main pile.
func (s State) Cards() []cards.Card {
	all := make([]cards.Card, 0, cards.DeckSize)
	for i := range s.Hands {
		all = append(all, s.Hands[i]...)
	}
	collect := func(cols Columns) {
		for color, values := range cols {
			for _, v := range values {
				all = append(all, cards.New(color, v))
			}
		}
	}
	collect(s.Plays[Host])
	collect(s.Plays[Guest])
	collect(s.Discards)
	return append(all, s.MainPile...)
}

// Target is where a played card goes.
type Target string

const (
	// TargetBoard plays the card onto the acting player's own column
	TargetBoard Target = "board"
	// TargetDiscard places the card on the shared discard pile of its color
	TargetDiscard Target = "discard"
)

// DrawSource names the pile the acting player draws from after playing.
// Color is only meaningful when FromDiscard is set.
type DrawSource struct {
	FromDiscard bool        `json:"from_discard"`
	Color       cards.Color `json:"color"`
}

// DrawMain draws the top card of the main pile.
func DrawMain() DrawSource {
	return DrawSource{}
}

// DrawDiscard draws the top card of color's discard pile.
func DrawDiscard(color cards.Color) DrawSource {
	return DrawSource{FromDiscard: true, Color: color}
}

// Play is a single move request: play a card somewhere, then draw.
type Play struct {
	GameID   ID         `json:"game_id"`
	PlayerID string     `json:"player_id"`
	Card     cards.Card `json:"card"`
	Target   Target     `json:"target"`
	Draw     DrawSource `json:"draw"`
}

// Check rejects plays that are structurally invalid before they are routed
// to a worker. Rule validation happens in the worker.
func (p Play) Check() error {
	switch {
	case p.GameID == "":
		return fmt.Errorf("missing game id: %w", ErrMalformedRequest)
	case p.PlayerID == "":
		return fmt.Errorf("missing player id: %w", ErrMalformedRequest)
	case !p.Card.Valid():
		return fmt.Errorf("invalid card %v: %w", p.Card, ErrMalformedRequest)
	case p.Target != TargetBoard && p.Target != TargetDiscard:
		return fmt.Errorf("invalid target %q: %w", p.Target, ErrMalformedRequest)
	case p.Draw.FromDiscard && !p.Draw.Color.Valid():
		return fmt.Errorf("invalid draw color %d: %w", int(p.Draw.Color), ErrMalformedRequest)
	}
	return nil
}
