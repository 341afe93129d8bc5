package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
)

func TestAPIErrorUnwrap(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{game.CodeNotYourTurn, game.ErrNotYourTurn},
		{game.CodeNotFound, game.ErrNotFound},
		{game.CodeGameAlreadyMatched, game.ErrGameAlreadyMatched},
		{game.CodeUnavailable, game.ErrEngineUnavailable},
		{"something_new", game.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := error(&APIError{Status: 400, Code: tt.code})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, "http 404 not_found: game g1", (&APIError{Status: 404, Code: "not_found", Message: "game g1"}).Error())
	assert.Equal(t, "not_found: game g1", (&APIError{Code: "not_found", Message: "game g1"}).Error())
}

func TestClientRequests(t *testing.T) {
	var got *http.Request
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/games":
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"game_id":"g 1"}`))
				return
			}
			_, _ = w.Write([]byte(`{"games":[{"game_id":"g 1","host_id":"alice","status":"awaiting_guest"}]}`))
		case "/games/g 1/plays":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"cant_play_decreasing_card_value","message":"nope"}`))
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	id, err := c.HostGame(ctx, "", "alice")
	require.NoError(t, err)
	assert.Equal(t, "g 1", id)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, map[string]any{"player_id": "alice"}, body)

	require.NoError(t, c.JoinGame(ctx, id, "bob"))
	assert.Equal(t, "/games/g%201/join", got.URL.EscapedPath())

	games, err := c.ListGames(ctx, "alice", FilterUnmatched)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, game.StatusAwaitingGuest, games[0].Status)
	assert.Equal(t, "unmatched", got.URL.Query().Get("filter"))

	err = c.Play(ctx, id, PlayRequest{
		PlayerID: "alice",
		Card:     cards.New(cards.Red, cards.Two),
		Target:   game.TargetBoard,
		Draw:     game.DrawDiscard(cards.Blue),
	})
	assert.ErrorIs(t, err, game.ErrCantPlayDecreasingCardValue)
	assert.Equal(t, map[string]any{
		"player_id": "alice",
		"card":      map[string]any{"color": "red", "value": float64(2)},
		"target":    "board",
		"draw":      map[string]any{"from_discard": true, "color": "blue"},
	}, body)

	err = c.do(ctx, http.MethodGet, "/broken", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.ErrorIs(t, err, game.ErrInternal)
}

func TestPlayRequest(t *testing.T) {
	req := PlayRequest{PlayerID: "bob", Card: cards.New(cards.Green, cards.Wager), Target: game.TargetDiscard}
	play := req.Play("g7")
	assert.Equal(t, "g7", play.GameID)
	assert.Equal(t, "bob", play.PlayerID)
	assert.Equal(t, req.Card, play.Card)
	assert.NoError(t, play.Check())
}
