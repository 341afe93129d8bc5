package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dreamware/expedition/internal/apiclient"
	"github.com/dreamware/expedition/internal/game"
)

// handleWS upgrades to a websocket command channel. Each connection is
// served by one goroutine: read a Command, run it, write its Reply.
func (a *app) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Printf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		var cmd apiclient.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.logger.Printf("ws read: %v", err)
			}
			return
		}

		reply := a.command(r.Context(), cmd)
		if err := conn.WriteJSON(reply); err != nil {
			a.logger.Printf("ws write: %v", err)
			return
		}
	}
}

func (a *app) command(ctx context.Context, cmd apiclient.Command) apiclient.Reply {
	data, err := a.dispatch(ctx, cmd)
	if err != nil {
		_, body := a.errorResponse(err)
		return apiclient.Reply{ID: cmd.ID, Error: &body}
	}
	reply := apiclient.Reply{ID: cmd.ID, OK: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			_, body := a.errorResponse(err)
			return apiclient.Reply{ID: cmd.ID, Error: &body}
		}
		reply.Data = raw
	}
	return reply
}

func (a *app) dispatch(ctx context.Context, cmd apiclient.Command) (any, error) {
	switch cmd.Op {
	case apiclient.OpHost:
		id, err := a.host(ctx, apiclient.HostRequest{GameID: cmd.GameID, PlayerID: cmd.PlayerID})
		if err != nil {
			return nil, err
		}
		return apiclient.HostResponse{GameID: id}, nil
	case apiclient.OpJoin:
		return nil, a.engine.JoinGame(ctx, cmd.GameID, cmd.PlayerID)
	case apiclient.OpState:
		view, err := a.engine.GetGameState(ctx, cmd.GameID, cmd.PlayerID)
		if err != nil {
			return nil, err
		}
		return view, nil
	case apiclient.OpDescribe:
		meta, err := a.engine.DescribeGame(ctx, cmd.GameID)
		if err != nil {
			return nil, err
		}
		return meta, nil
	case apiclient.OpPlay:
		if cmd.Play == nil {
			return nil, fmt.Errorf("play command without a play: %w", game.ErrMalformedRequest)
		}
		return nil, a.engine.PlayCard(ctx, cmd.Play.Play(cmd.GameID))
	case apiclient.OpList:
		games, err := a.list(ctx, cmd.PlayerID, cmd.Filter)
		if err != nil {
			return nil, err
		}
		return apiclient.GamesResponse{Games: games}, nil
	}
	return nil, fmt.Errorf("unknown op %q: %w", cmd.Op, game.ErrMalformedRequest)
}
