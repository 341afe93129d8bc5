package coordinator

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
	"github.com/dreamware/expedition/internal/shard"
	"github.com/dreamware/expedition/internal/storage"
)

// DefaultShardCount is the pool size used when none is configured: one
// worker per CPU, and never fewer than three.
func DefaultShardCount() int {
	return max(runtime.NumCPU(), 3)
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Shards    int           // Number of workers; DefaultShardCount when zero
	QueueSize int           // Inbox capacity per worker
	Timeout   time.Duration // Applied to calls whose context has no deadline
	// Store returns the store for worker id. A store shared by several
	// workers must be safe for concurrent use.
	Store  func(id int) storage.Store
	Seeds  cards.SeedSource
	Clock  func() time.Time
	Logger *log.Logger // Base logger; each worker gets its own prefix
}

// Engine is the client handle of the game engine. It owns a fixed pool of
// shard workers, routes each call to the worker owning the game and waits
// for the reply. All methods are safe for concurrent use.
type Engine struct {
	workers []*shard.Worker
	timeout time.Duration
	logger  *log.Logger
}

// NewEngine creates and starts the worker pool. The pool size never changes.
func NewEngine(cfg EngineConfig) *Engine {
	n := cfg.Shards
	if n <= 0 {
		n = DefaultShardCount()
	}
	if cfg.Store == nil {
		cfg.Store = func(int) storage.Store { return storage.NewMemoryStore() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	e := &Engine{
		workers: make([]*shard.Worker, n),
		timeout: cfg.Timeout,
		logger:  log.New(logger.Writer(), "[engine] ", logger.Flags()),
	}
	for id := range e.workers {
		opts := []shard.Option{
			shard.WithLogger(log.New(logger.Writer(), fmt.Sprintf("[shard-%d] ", id), logger.Flags())),
			shard.WithQueueSize(cfg.QueueSize),
			shard.WithOwnership(Owner(id, n)),
		}
		if cfg.Seeds != nil {
			opts = append(opts, shard.WithSeeds(cfg.Seeds))
		}
		if cfg.Clock != nil {
			opts = append(opts, shard.WithClock(cfg.Clock))
		}
		w := shard.NewWorker(id, cfg.Store(id), opts...)
		w.Start()
		e.workers[id] = w
	}
	e.logger.Printf("started %d shard workers", n)
	return e
}

// Workers returns the pool, indexed by shard id.
func (e *Engine) Workers() []*shard.Worker {
	return slices.Clone(e.workers)
}

// ShardCount returns the fixed pool size.
func (e *Engine) ShardCount() int {
	return len(e.workers)
}

// Close stops every worker. Calls made afterwards fail with an
// unavailable error.
func (e *Engine) Close() {
	for _, w := range e.workers {
		w.Stop()
	}
	e.logger.Printf("stopped %d shard workers", len(e.workers))
}

func (e *Engine) route(id game.ID) *shard.Worker {
	return e.workers[Route(id, len(e.workers))]
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}

func required(field, value string) error {
	if value == "" {
		return fmt.Errorf("missing %s: %w", field, game.ErrMalformedRequest)
	}
	return nil
}

// HostGame registers game id with hostID in the host seat.
func (e *Engine) HostGame(ctx context.Context, id game.ID, hostID string) error {
	if err := firstErr(required("game id", id), required("player id", hostID)); err != nil {
		return err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.route(id).HostGame(ctx, id, hostID)
}

// JoinGame seats guestID in game id and deals.
func (e *Engine) JoinGame(ctx context.Context, id game.ID, guestID string) error {
	if err := firstErr(required("game id", id), required("player id", guestID)); err != nil {
		return err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.route(id).JoinGame(ctx, id, guestID)
}

// GetGameState returns game id as seen by playerID.
func (e *Engine) GetGameState(ctx context.Context, id game.ID, playerID string) (game.View, error) {
	if err := firstErr(required("game id", id), required("player id", playerID)); err != nil {
		return game.View{}, err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.route(id).GetGameState(ctx, id, playerID)
}

// PlayCard submits one move.
func (e *Engine) PlayCard(ctx context.Context, play game.Play) error {
	if err := play.Check(); err != nil {
		return err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.route(play.GameID).PlayCard(ctx, play)
}

// DescribeGame returns the metadata of game id.
func (e *Engine) DescribeGame(ctx context.Context, id game.ID) (game.Metadata, error) {
	if err := required("game id", id); err != nil {
		return game.Metadata{}, err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.route(id).DescribeGame(ctx, id)
}

// QueryUnmatchedGames returns the games playerID hosts that nobody joined yet.
func (e *Engine) QueryUnmatchedGames(ctx context.Context, playerID string) ([]game.Metadata, error) {
	return e.query(ctx, shard.Query{Status: game.StatusAwaitingGuest, PlayerID: playerID})
}

// QueryInProgressGames returns the games playerID is currently playing.
func (e *Engine) QueryInProgressGames(ctx context.Context, playerID string) ([]game.Metadata, error) {
	return e.query(ctx, shard.Query{Status: game.StatusInProgress, PlayerID: playerID})
}

// QueryCompletedGames returns the games playerID has finished.
func (e *Engine) QueryCompletedGames(ctx context.Context, playerID string) ([]game.Metadata, error) {
	return e.query(ctx, shard.Query{Status: game.StatusCompleted, PlayerID: playerID})
}

// QueryAllUnmatchedGames returns every open game playerID could join, that
// is every game awaiting a guest that playerID does not host.
func (e *Engine) QueryAllUnmatchedGames(ctx context.Context, playerID string) ([]game.Metadata, error) {
	return e.query(ctx, shard.Query{Status: game.StatusAwaitingGuest, PlayerID: playerID, ExcludePlayer: true})
}

// query scatters q to every worker and gathers the results, oldest first.
// The first failing worker fails the whole query.
func (e *Engine) query(ctx context.Context, q shard.Query) ([]game.Metadata, error) {
	if err := required("player id", q.PlayerID); err != nil {
		return nil, err
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	parts := make([][]game.Metadata, len(e.workers))
	errs := make([]error, len(e.workers))
	var wg sync.WaitGroup
	for i, w := range e.workers {
		wg.Add(1)
		go func(i int, w *shard.Worker) {
			defer wg.Done()
			parts[i], errs[i] = w.ListGames(ctx, q)
		}(i, w)
	}
	wg.Wait()

	if err := firstErr(errs...); err != nil {
		return nil, err
	}
	var all []game.Metadata
	for _, part := range parts {
		all = append(all, part...)
	}
	slices.SortFunc(all, func(a, b game.Metadata) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	if all == nil {
		all = []game.Metadata{}
	}
	return all, nil
}

// ShardStats collects every worker's counters, in shard order.
func (e *Engine) ShardStats(ctx context.Context) ([]shard.ShardStats, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	stats := make([]shard.ShardStats, len(e.workers))
	for i, w := range e.workers {
		s, err := w.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("shard %d: %w", i, err)
		}
		stats[i] = s
	}
	return stats, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
