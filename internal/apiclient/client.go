// Package apiclient is the HTTP and websocket client for the game server,
// plus the wire types both sides share. Server errors come back as
// *APIError values that match the game package's sentinel errors with
// errors.Is.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dreamware/expedition/internal/game"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps the wire code back to the game sentinel error.
func (e *APIError) Unwrap() error {
	return game.FromCode(e.Code)
}

// Client talks to one game server.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for the server at base, e.g. "http://localhost:8080".
func New(base string) *Client {
	return &Client{base: base, http: &http.Client{Timeout: 5 * time.Second}}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Code == "" {
			return &APIError{Status: resp.StatusCode, Code: game.CodeInternal, Message: http.StatusText(resp.StatusCode)}
		}
		return &APIError{Status: resp.StatusCode, Code: e.Code, Message: e.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// HostGame creates a game and returns its id. An empty gameID lets the
// server pick one.
func (c *Client) HostGame(ctx context.Context, gameID, playerID string) (string, error) {
	var out HostResponse
	err := c.do(ctx, http.MethodPost, "/games", HostRequest{GameID: gameID, PlayerID: playerID}, &out)
	return out.GameID, err
}

// JoinGame takes the guest seat.
func (c *Client) JoinGame(ctx context.Context, gameID, playerID string) error {
	return c.do(ctx, http.MethodPost, "/games/"+url.PathEscape(gameID)+"/join", JoinRequest{PlayerID: playerID}, nil)
}

// GameState returns the game as seen by playerID.
func (c *Client) GameState(ctx context.Context, gameID, playerID string) (game.View, error) {
	var out game.View
	path := "/games/" + url.PathEscape(gameID) + "?player_id=" + url.QueryEscape(playerID)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// DescribeGame returns a game's metadata.
func (c *Client) DescribeGame(ctx context.Context, gameID string) (game.Metadata, error) {
	var out game.Metadata
	err := c.do(ctx, http.MethodGet, "/games/"+url.PathEscape(gameID)+"/metadata", nil, &out)
	return out, err
}

// Play submits one move.
func (c *Client) Play(ctx context.Context, gameID string, play PlayRequest) error {
	return c.do(ctx, http.MethodPost, "/games/"+url.PathEscape(gameID)+"/plays", play, nil)
}

// ListGames lists playerID's games matching filter.
func (c *Client) ListGames(ctx context.Context, playerID, filter string) ([]game.Metadata, error) {
	var out GamesResponse
	q := url.Values{"player_id": {playerID}, "filter": {filter}}
	err := c.do(ctx, http.MethodGet, "/games?"+q.Encode(), nil, &out)
	return out.Games, err
}

// Health returns per-shard health.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Shards returns per-shard statistics.
func (c *Client) Shards(ctx context.Context) (ShardsResponse, error) {
	var out ShardsResponse
	err := c.do(ctx, http.MethodGet, "/shards", nil, &out)
	return out, err
}
