package shard

import (
	"context"

	"github.com/dreamware/expedition/internal/game"
)

// request is the typed input of one message.
type request interface {
	name() string
}

type hostGame struct {
	id     game.ID
	hostID string
}

type joinGame struct {
	id      game.ID
	guestID string
}

type getGameState struct {
	id       game.ID
	playerID string
}

type playCard struct {
	play game.Play
}

type describeGame struct {
	id game.ID
}

type listGames struct {
	query Query
}

type statsRequest struct{}

type ping struct{}

func (hostGame) name() string     { return "host_game" }
func (joinGame) name() string     { return "join_game" }
func (getGameState) name() string { return "get_game_state" }
func (playCard) name() string     { return "play_card" }
func (describeGame) name() string { return "describe_game" }
func (listGames) name() string    { return "list_games" }
func (statsRequest) name() string { return "stats" }
func (ping) name() string         { return "ping" }

type result struct {
	value any
	err   error
}

// envelope pairs a request with its completion slot. The slot has room for
// exactly one reply so the loop never blocks on a caller that went away.
type envelope struct {
	req   request
	reply chan result
}

// Query selects games for ListGames.
type Query struct {
	Status game.Status
	// PlayerID, when set, keeps only games the player takes part in, or
	// with ExcludePlayer, only games the player does not host.
	PlayerID      string
	ExcludePlayer bool
}

// Matches reports whether meta is selected by q.
func (q Query) Matches(meta game.Metadata) bool {
	if q.Status != "" && meta.Status != q.Status {
		return false
	}
	if q.PlayerID == "" {
		return true
	}
	if q.ExcludePlayer {
		return meta.HostID != q.PlayerID
	}
	return meta.Involves(q.PlayerID)
}

// call sends req and waits for its reply. A stopped worker, whether seen
// while sending or while waiting, yields an unavailable error. Context
// cancellation returns the context's error and leaves the worker alone; a
// reply that arrives later is dropped into the buffered slot.
func (w *Worker) call(ctx context.Context, req request) (any, error) {
	env := envelope{req: req, reply: make(chan result, 1)}

	select {
	case <-w.quit:
		return nil, game.Unavailable(req.name())
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	select {
	case w.inbox <- env:
	case <-w.quit:
		return nil, game.Unavailable(req.name())
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-env.reply:
		return res.value, res.err
	case <-w.quit:
		// Stop answers queued messages and waits for the one in flight,
		// so a reply may still be on its way.
		select {
		case res := <-env.reply:
			return res.value, res.err
		case <-w.loopDone():
		}
		select {
		case res := <-env.reply:
			return res.value, res.err
		default:
			return nil, game.Unavailable(req.name())
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HostGame registers a new game hosted by hostID.
func (w *Worker) HostGame(ctx context.Context, id game.ID, hostID string) error {
	_, err := w.call(ctx, hostGame{id: id, hostID: hostID})
	return err
}

// JoinGame seats guestID in game id and deals the cards.
func (w *Worker) JoinGame(ctx context.Context, id game.ID, guestID string) error {
	_, err := w.call(ctx, joinGame{id: id, guestID: guestID})
	return err
}

// GetGameState returns the game as seen by playerID.
func (w *Worker) GetGameState(ctx context.Context, id game.ID, playerID string) (game.View, error) {
	v, err := w.call(ctx, getGameState{id: id, playerID: playerID})
	if err != nil {
		return game.View{}, err
	}
	return v.(game.View), nil
}

// PlayCard validates and applies one move.
func (w *Worker) PlayCard(ctx context.Context, play game.Play) error {
	_, err := w.call(ctx, playCard{play: play})
	return err
}

// DescribeGame returns the metadata of game id.
func (w *Worker) DescribeGame(ctx context.Context, id game.ID) (game.Metadata, error) {
	v, err := w.call(ctx, describeGame{id: id})
	if err != nil {
		return game.Metadata{}, err
	}
	return v.(game.Metadata), nil
}

// ListGames returns the metadata of this worker's games matching q.
func (w *Worker) ListGames(ctx context.Context, q Query) ([]game.Metadata, error) {
	v, err := w.call(ctx, listGames{query: q})
	if err != nil {
		return nil, err
	}
	return v.([]game.Metadata), nil
}

// Stats returns the worker's counters as seen by its loop.
func (w *Worker) Stats(ctx context.Context) (ShardStats, error) {
	v, err := w.call(ctx, statsRequest{})
	if err != nil {
		return ShardStats{}, err
	}
	return v.(ShardStats), nil
}

// Ping round-trips an empty message through the loop.
func (w *Worker) Ping(ctx context.Context) error {
	_, err := w.call(ctx, ping{})
	return err
}
