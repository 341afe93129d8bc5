package game

import "errors"

// Stable error codes used on the wire. Clients map them back to the
// sentinel errors with FromCode.
const (
	CodeNotYourTurn        = "not_your_turn"
	CodeCardNotInHand      = "card_not_in_hand"
	CodeDecreasingValue    = "cant_play_decreasing_card_value"
	CodeRedrawJustPlayed   = "cant_redraw_card_just_played"
	CodeDrawPileEmpty      = "neutral_draw_pile_empty"
	CodeNotFound           = "not_found"
	CodeAlreadyExists      = "already_exists"
	CodeGameAlreadyMatched = "game_already_matched"
	CodeMalformedRequest   = "malformed_request"
	CodeUnavailable        = "engine_unavailable"
	CodeInternal           = "internal"
)

var codes = []struct {
	code string
	err  error
}{
	{CodeNotYourTurn, ErrNotYourTurn},
	{CodeCardNotInHand, ErrCardNotInHand},
	{CodeDecreasingValue, ErrCantPlayDecreasingCardValue},
	{CodeRedrawJustPlayed, ErrCantRedrawCardJustPlayed},
	{CodeDrawPileEmpty, ErrNeutralDrawPileEmpty},
	{CodeNotFound, ErrNotFound},
	{CodeAlreadyExists, ErrAlreadyExists},
	{CodeGameAlreadyMatched, ErrGameAlreadyMatched},
	{CodeMalformedRequest, ErrMalformedRequest},
	{CodeUnavailable, ErrEngineUnavailable},
}

// Code returns the wire code of err. Unknown errors are CodeInternal.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// FromCode returns the sentinel error for code, or ErrInternal.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return ErrInternal
}
