package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dreamware/expedition/internal/apiclient"
	"github.com/dreamware/expedition/internal/coordinator"
	"github.com/dreamware/expedition/internal/game"
)

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", a.handleHost)
	mux.HandleFunc("GET /games", a.handleList)
	mux.HandleFunc("POST /games/{id}/join", a.handleJoin)
	mux.HandleFunc("GET /games/{id}", a.handleState)
	mux.HandleFunc("GET /games/{id}/metadata", a.handleDescribe)
	mux.HandleFunc("POST /games/{id}/plays", a.handlePlay)
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /shards", a.handleShards)
	mux.HandleFunc("GET /ws", a.handleWS)
	return mux
}

func (a *app) handleHost(w http.ResponseWriter, r *http.Request) {
	var req apiclient.HostRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := a.host(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiclient.HostResponse{GameID: id})
}

// host creates the game, picking a fresh id when the request has none.
func (a *app) host(ctx context.Context, req apiclient.HostRequest) (string, error) {
	id := req.GameID
	if id == "" {
		id = uuid.NewString()
	}
	return id, a.engine.HostGame(ctx, id, req.PlayerID)
}

func (a *app) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req apiclient.JoinRequest
	if !decode(w, r, &req) {
		return
	}
	if err := a.engine.JoinGame(r.Context(), r.PathValue("id"), req.PlayerID); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleState(w http.ResponseWriter, r *http.Request) {
	view, err := a.engine.GetGameState(r.Context(), r.PathValue("id"), r.URL.Query().Get("player_id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *app) handleDescribe(w http.ResponseWriter, r *http.Request) {
	meta, err := a.engine.DescribeGame(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (a *app) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req apiclient.PlayRequest
	if !decode(w, r, &req) {
		return
	}
	if err := a.engine.PlayCard(r.Context(), req.Play(r.PathValue("id"))); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	games, err := a.list(r.Context(), q.Get("player_id"), q.Get("filter"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiclient.GamesResponse{Games: games})
}

func (a *app) list(ctx context.Context, playerID, filter string) ([]game.Metadata, error) {
	switch filter {
	case apiclient.FilterUnmatched:
		return a.engine.QueryUnmatchedGames(ctx, playerID)
	case apiclient.FilterInProgress, "":
		return a.engine.QueryInProgressGames(ctx, playerID)
	case apiclient.FilterCompleted:
		return a.engine.QueryCompletedGames(ctx, playerID)
	case apiclient.FilterOpen:
		return a.engine.QueryAllUnmatchedGames(ctx, playerID)
	}
	return nil, fmt.Errorf("unknown filter %q: %w", filter, game.ErrMalformedRequest)
}

func (a *app) handleHealth(w http.ResponseWriter, _ *http.Request) {
	all := a.supervisor.GetAllShardHealth()
	ids := maps.Keys(all)
	slices.Sort(ids)

	resp := apiclient.HealthResponse{
		Healthy: a.supervisor.Healthy(),
		Shards:  make([]coordinator.ShardHealth, 0, len(ids)),
	}
	for _, id := range ids {
		resp.Shards = append(resp.Shards, *all[id])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *app) handleShards(w http.ResponseWriter, r *http.Request) {
	stats, err := a.engine.ShardStats(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiclient.ShardsResponse{Count: len(stats), Shards: stats})
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, apiclient.ErrorResponse{
			Code:    game.CodeMalformedRequest,
			Message: "bad json: " + err.Error(),
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse maps an engine error to a status and body. Internal causes
// are logged here and never sent to the client.
func (a *app) errorResponse(err error) (int, apiclient.ErrorResponse) {
	switch {
	case errors.Is(err, game.ErrMalformedRequest):
		return http.StatusBadRequest, apiclient.ErrorResponse{Code: game.CodeMalformedRequest, Message: err.Error()}
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound, apiclient.ErrorResponse{Code: game.CodeNotFound, Message: err.Error()}
	case errors.Is(err, game.ErrAlreadyExists), errors.Is(err, game.ErrGameAlreadyMatched):
		return http.StatusConflict, apiclient.ErrorResponse{Code: game.Code(err), Message: err.Error()}
	case game.IsRuleViolation(err):
		return http.StatusUnprocessableEntity, apiclient.ErrorResponse{Code: game.Code(err), Message: err.Error()}
	case errors.Is(err, game.ErrEngineUnavailable):
		a.logger.Printf("engine unavailable: %v", err)
		return http.StatusServiceUnavailable, apiclient.ErrorResponse{Code: game.CodeUnavailable, Message: "game engine unavailable"}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		a.logger.Printf("request abandoned: %v", err)
		return http.StatusServiceUnavailable, apiclient.ErrorResponse{Code: game.CodeUnavailable, Message: "request timed out"}
	}
	a.logger.Printf("internal error: %v", err)
	return http.StatusInternalServerError, apiclient.ErrorResponse{Code: game.CodeInternal, Message: "internal error"}
}

func (a *app) writeError(w http.ResponseWriter, err error) {
	status, body := a.errorResponse(err)
	writeJSON(w, status, body)
}
