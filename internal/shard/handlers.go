package shard

import (
	"context"
	"errors"
	"fmt"

	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
	"github.com/dreamware/expedition/internal/rules"
	"github.com/dreamware/expedition/internal/storage"
)

// handle runs one request to completion. Store calls use a background
// context: once the loop has taken a message it finishes it even if the
// caller gave up.
func (w *Worker) handle(req request) result {
	ctx := context.Background()
	switch r := req.(type) {
	case hostGame:
		w.stats.Hosts++
		return result{err: w.hostGame(ctx, r)}
	case joinGame:
		w.stats.Joins++
		return result{err: w.joinGame(ctx, r)}
	case getGameState:
		w.stats.States++
		view, err := w.gameState(ctx, r)
		return result{value: view, err: err}
	case playCard:
		w.stats.Plays++
		return result{err: w.playCard(ctx, r.play)}
	case describeGame:
		w.stats.Queries++
		meta, err := w.loadMetadata(ctx, r.id)
		return result{value: meta, err: err}
	case listGames:
		w.stats.Queries++
		games, err := w.listGames(ctx, r.query)
		return result{value: games, err: err}
	case statsRequest:
		return result{value: ShardStats{
			ID:       w.ID,
			Ops:      w.stats,
			Storage:  w.store.Stats(),
			Restarts: w.restarts,
			Queued:   len(w.inbox),
		}}
	case ping:
		return result{}
	}
	return result{err: game.Impossible(fmt.Sprintf("unknown request %T", req))}
}

func (w *Worker) hostGame(ctx context.Context, r hostGame) error {
	meta := game.Metadata{
		ID:        r.id,
		HostID:    r.hostID,
		Status:    game.StatusAwaitingGuest,
		CreatedAt: w.now().UTC(),
	}
	if err := w.store.CreateMetadata(ctx, meta); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return fmt.Errorf("game %s: %w", r.id, game.ErrAlreadyExists)
		}
		return game.StorageError("create metadata", err)
	}
	w.logger.Printf("game %s hosted by %s", r.id, r.hostID)
	return nil
}

func (w *Worker) joinGame(ctx context.Context, r joinGame) error {
	meta, err := w.loadMetadata(ctx, r.id)
	if err != nil {
		return err
	}
	if meta.Matched() {
		return fmt.Errorf("game %s: %w", r.id, game.ErrGameAlreadyMatched)
	}

	// The state is written before the guest is attached, so a failed join
	// leaves the game open. A state left behind by such a join is replaced.
	seed := w.seeds()
	state, err := rules.Deal(r.id, seed, cards.NewSeededShuffler(seed))
	if err != nil {
		return &game.InternalError{Kind: game.KindImpossible, Op: "deal", Cause: err}
	}
	err = w.store.CreateState(ctx, state)
	if errors.Is(err, storage.ErrAlreadyExists) {
		err = w.store.UpdateState(ctx, state)
	}
	if err != nil {
		return game.StorageError("create state", err)
	}

	meta.GuestID = r.guestID
	meta.Status = game.StatusInProgress
	if err := w.store.UpdateMetadata(ctx, meta); err != nil {
		switch {
		case errors.Is(err, storage.ErrIllegalModification):
			return fmt.Errorf("game %s: %w", r.id, game.ErrGameAlreadyMatched)
		case errors.Is(err, storage.ErrNotFound):
			return game.NotFound("game " + r.id)
		}
		return game.StorageError("update metadata", err)
	}

	w.logger.Printf("game %s joined by %s, dealt with seed %d, %s starts", r.id, r.guestID, seed, state.Turn)
	return nil
}

func (w *Worker) gameState(ctx context.Context, r getGameState) (game.View, error) {
	meta, err := w.loadMetadata(ctx, r.id)
	if err != nil {
		return game.View{}, err
	}
	seat, err := seatOf(meta, r.playerID)
	if err != nil {
		return game.View{}, err
	}
	state, err := w.loadState(ctx, r.id)
	if err != nil {
		return game.View{}, err
	}
	return rules.Project(state, seat), nil
}

func (w *Worker) playCard(ctx context.Context, play game.Play) error {
	meta, err := w.loadMetadata(ctx, play.GameID)
	if err != nil {
		return err
	}
	seat, err := seatOf(meta, play.PlayerID)
	if err != nil {
		return err
	}
	state, err := w.loadState(ctx, play.GameID)
	if err != nil {
		return err
	}

	next, err := rules.Apply(play, state, seat)
	if err != nil {
		return err
	}
	if err := w.store.UpdateState(ctx, next); err != nil {
		return game.StorageError("update state", err)
	}

	if rules.Finished(next) && meta.Status != game.StatusCompleted {
		meta.Status = game.StatusCompleted
		if err := w.store.UpdateMetadata(ctx, meta); err != nil {
			return game.StorageError("complete game", err)
		}
		w.logger.Printf("game %s completed", play.GameID)
	}
	return nil
}

func (w *Worker) listGames(ctx context.Context, q Query) ([]game.Metadata, error) {
	all, err := w.store.ListMetadata(ctx)
	if err != nil {
		return nil, game.StorageError("list metadata", err)
	}
	matches := []game.Metadata{}
	for _, meta := range all {
		if w.OwnsKey(meta.ID) && q.Matches(meta) {
			matches = append(matches, meta)
		}
	}
	return matches, nil
}

func (w *Worker) loadMetadata(ctx context.Context, id game.ID) (game.Metadata, error) {
	meta, err := w.store.LoadMetadata(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return game.Metadata{}, game.NotFound("game " + id)
	}
	if err != nil {
		return game.Metadata{}, game.StorageError("load metadata", err)
	}
	return meta, nil
}

// seatOf resolves playerID in a matched game. Unmatched games have no
// playable state yet.
func seatOf(meta game.Metadata, playerID string) (game.Seat, error) {
	if !meta.Matched() {
		return 0, game.NotFound("state of unmatched game " + meta.ID)
	}
	seat, ok := meta.SeatOf(playerID)
	if !ok {
		return 0, game.NotFound(fmt.Sprintf("player %s in game %s", playerID, meta.ID))
	}
	return seat, nil
}

// loadState reads the dealt state of a matched game. A missing state means
// the store lost a write.
func (w *Worker) loadState(ctx context.Context, id game.ID) (game.State, error) {
	state, err := w.store.LoadState(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return game.State{}, &game.InternalError{Kind: game.KindImpossible, Op: "load state of matched game " + id, Cause: err}
	}
	if err != nil {
		return game.State{}, game.StorageError("load state", err)
	}
	return state, nil
}
