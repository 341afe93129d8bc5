package apiclient

import (
	"encoding/json"

	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/coordinator"
	"github.com/dreamware/expedition/internal/game"
	"github.com/dreamware/expedition/internal/shard"
)

// Game list filters accepted by GET /games.
const (
	FilterUnmatched  = "unmatched"
	FilterInProgress = "in_progress"
	FilterCompleted  = "completed"
	FilterOpen       = "open"
)

type HostRequest struct {
	GameID   string `json:"game_id,omitempty"`
	PlayerID string `json:"player_id"`
}

type HostResponse struct {
	GameID string `json:"game_id"`
}

type JoinRequest struct {
	PlayerID string `json:"player_id"`
}

type PlayRequest struct {
	PlayerID string          `json:"player_id"`
	Card     cards.Card      `json:"card"`
	Target   game.Target     `json:"target"`
	Draw     game.DrawSource `json:"draw"`
}

// Play converts the request into a move on gameID.
func (r PlayRequest) Play(gameID string) game.Play {
	return game.Play{
		GameID:   gameID,
		PlayerID: r.PlayerID,
		Card:     r.Card,
		Target:   r.Target,
		Draw:     r.Draw,
	}
}

type GamesResponse struct {
	Games []game.Metadata `json:"games"`
}

type HealthResponse struct {
	Healthy bool                      `json:"healthy"`
	Shards  []coordinator.ShardHealth `json:"shards"`
}

type ShardsResponse struct {
	Count  int                `json:"count"`
	Shards []shard.ShardStats `json:"shards"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// Command operations accepted on the websocket channel.
const (
	OpHost     = "host"
	OpJoin     = "join"
	OpState    = "state"
	OpDescribe = "describe"
	OpPlay     = "play"
	OpList     = "list"
)

// Command is one request frame on the websocket channel. ID is echoed in
// the reply so clients can pipeline commands.
type Command struct {
	ID       string       `json:"id"`
	Op       string       `json:"op"`
	GameID   string       `json:"game_id,omitempty"`
	PlayerID string       `json:"player_id,omitempty"`
	Filter   string       `json:"filter,omitempty"`
	Play     *PlayRequest `json:"play,omitempty"`
}

// Reply answers one Command.
type Reply struct {
	ID    string          `json:"id"`
	OK    bool            `json:"ok"`
	Error *ErrorResponse  `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}
