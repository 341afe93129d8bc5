package coordinator

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
	"github.com/dreamware/expedition/internal/storage"
)

var quiet = log.New(io.Discard, "", 0)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newTestEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	cfg.Logger = quiet
	if cfg.Seeds == nil {
		cfg.Seeds = cards.FixedSeeds(7)
	}
	if cfg.Clock == nil {
		cfg.Clock = tickingClock()
	}
	e := NewEngine(cfg)
	t.Cleanup(e.Close)
	return e
}

func ids(games []game.Metadata) []string {
	out := make([]string, len(games))
	for i, m := range games {
		out[i] = m.ID
	}
	return out
}

func TestNewEngine(t *testing.T) {
	t.Run("default pool size", func(t *testing.T) {
		e := newTestEngine(t, EngineConfig{})
		assert.Equal(t, DefaultShardCount(), e.ShardCount())
		assert.GreaterOrEqual(t, e.ShardCount(), 3)
	})

	t.Run("configured pool size", func(t *testing.T) {
		e := newTestEngine(t, EngineConfig{Shards: 5})
		assert.Equal(t, 5, e.ShardCount())
		for id, w := range e.Workers() {
			assert.Equal(t, id, w.ID)
		}
	})
}

// TestEngineRoutesToOwner checks that every game lands on the worker the
// router picks, and only there.
func TestEngineRoutesToOwner(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, EngineConfig{Shards: 4})

	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("game-%d", i)
		require.NoError(t, e.HostGame(ctx, id, "alice"))

		owner := Route(id, e.ShardCount())
		for shardID, w := range e.Workers() {
			_, err := w.DescribeGame(ctx, id)
			if shardID == owner {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, game.ErrNotFound)
			}
		}
	}

	stats, err := e.ShardStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 4)
	total := 0
	for i, s := range stats {
		assert.Equal(t, i, s.ID)
		total += s.Storage.Games
	}
	assert.Equal(t, 40, total)
}

func TestEngineGameFlow(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, EngineConfig{Shards: 3})

	require.NoError(t, e.HostGame(ctx, "g1", "alice"))
	assert.ErrorIs(t, e.HostGame(ctx, "g1", "bob"), game.ErrAlreadyExists)
	require.NoError(t, e.JoinGame(ctx, "g1", "bob"))
	assert.ErrorIs(t, e.JoinGame(ctx, "g1", "carol"), game.ErrGameAlreadyMatched)

	hostView, err := e.GetGameState(ctx, "g1", "alice")
	require.NoError(t, err)
	guestView, err := e.GetGameState(ctx, "g1", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, hostView.Outcome.MyTurn, guestView.Outcome.MyTurn)

	player, view := "alice", hostView
	if guestView.Outcome.MyTurn {
		player, view = "bob", guestView
	}
	require.NoError(t, e.PlayCard(ctx, game.Play{
		GameID:   "g1",
		PlayerID: player,
		Card:     view.Hand[0].Card,
		Target:   game.TargetDiscard,
		Draw:     game.DrawMain(),
	}))

	after, err := e.GetGameState(ctx, "g1", player)
	require.NoError(t, err)
	assert.False(t, after.Outcome.MyTurn)

	meta, err := e.DescribeGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, game.StatusInProgress, meta.Status)
}

func TestEngineRejectsMalformedRequests(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, EngineConfig{Shards: 3})

	tests := []struct {
		name string
		call func() error
	}{
		{"host without id", func() error { return e.HostGame(ctx, "", "alice") }},
		{"host without player", func() error { return e.HostGame(ctx, "g1", "") }},
		{"join without player", func() error { return e.JoinGame(ctx, "g1", "") }},
		{"state without player", func() error { _, err := e.GetGameState(ctx, "g1", ""); return err }},
		{"describe without id", func() error { _, err := e.DescribeGame(ctx, ""); return err }},
		{"query without player", func() error { _, err := e.QueryInProgressGames(ctx, ""); return err }},
		{"play with bad target", func() error {
			return e.PlayCard(ctx, game.Play{GameID: "g1", PlayerID: "alice", Card: cards.New(cards.Red, cards.Two), Target: "sky"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.ErrorIs(t, err, game.ErrMalformedRequest)
			assert.True(t, game.IsUserFault(err))
		})
	}
}

func TestEngineQueries(t *testing.T) {
	ctx := context.Background()

	run := func(t *testing.T, e *Engine) {
		// created in this order, one clock tick apart
		require.NoError(t, e.HostGame(ctx, "a1", "alice"))
		require.NoError(t, e.HostGame(ctx, "b1", "bob"))
		require.NoError(t, e.HostGame(ctx, "a2", "alice"))
		require.NoError(t, e.HostGame(ctx, "c1", "carol"))
		require.NoError(t, e.HostGame(ctx, "a3", "alice"))
		require.NoError(t, e.JoinGame(ctx, "a2", "bob"))
		require.NoError(t, e.JoinGame(ctx, "c1", "alice"))

		unmatched, err := e.QueryUnmatchedGames(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a3"}, ids(unmatched))

		playing, err := e.QueryInProgressGames(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"a2", "c1"}, ids(playing))

		open, err := e.QueryAllUnmatchedGames(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"b1"}, ids(open))

		open, err = e.QueryAllUnmatchedGames(ctx, "dave")
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "b1", "a3"}, ids(open))

		done, err := e.QueryCompletedGames(ctx, "alice")
		require.NoError(t, err)
		assert.NotNil(t, done)
		assert.Empty(t, done)
	}

	t.Run("store per shard", func(t *testing.T) {
		run(t, newTestEngine(t, EngineConfig{Shards: 4}))
	})

	t.Run("shared sqlite store", func(t *testing.T) {
		shared, err := storage.OpenSQLStore(filepath.Join(t.TempDir(), "games.db"))
		require.NoError(t, err)
		t.Cleanup(func() { shared.Close() })

		run(t, newTestEngine(t, EngineConfig{
			Shards: 4,
			Store:  func(int) storage.Store { return shared },
		}))
	})
}

func TestEngineConcurrentGames(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, EngineConfig{Shards: 4})

	const games = 32
	var wg sync.WaitGroup
	errs := make(chan error, games*2)
	for i := 0; i < games; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("game-%d", i)
			if err := e.HostGame(ctx, id, fmt.Sprintf("host-%d", i)); err != nil {
				errs <- err
				return
			}
			errs <- e.JoinGame(ctx, id, fmt.Sprintf("guest-%d", i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	for i := 0; i < games; i++ {
		playing, err := e.QueryInProgressGames(ctx, fmt.Sprintf("guest-%d", i))
		require.NoError(t, err)
		assert.Equal(t, []string{fmt.Sprintf("game-%d", i)}, ids(playing))
	}
}

func TestEngineClose(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(EngineConfig{Shards: 3, Logger: quiet})
	require.NoError(t, e.HostGame(ctx, "g1", "alice"))

	e.Close()

	err := e.HostGame(ctx, "g2", "alice")
	assert.ErrorIs(t, err, game.ErrEngineUnavailable)
	_, err = e.QueryUnmatchedGames(ctx, "alice")
	assert.ErrorIs(t, err, game.ErrEngineUnavailable)
	_, err = e.ShardStats(ctx)
	assert.ErrorIs(t, err, game.ErrEngineUnavailable)
}

func TestEngineTimeout(t *testing.T) {
	e := newTestEngine(t, EngineConfig{Shards: 3, Timeout: time.Minute})

	ctx, cancel := e.withTimeout(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	// a caller's own deadline wins
	own, ownCancel := context.WithTimeout(context.Background(), time.Second)
	defer ownCancel()
	ctx2, cancel2 := e.withTimeout(own)
	defer cancel2()
	d2, _ := ctx2.Deadline()
	ownDeadline, _ := own.Deadline()
	assert.Equal(t, ownDeadline, d2)
}
