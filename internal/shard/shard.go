package shard

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dreamware/expedition/internal/cards"
	"github.com/dreamware/expedition/internal/game"
	"github.com/dreamware/expedition/internal/storage"
)

// DefaultQueueSize is the inbox capacity used when none is configured.
const DefaultQueueSize = 256

// ShardState represents the current state of a worker loop
type ShardState string

const (
	// ShardStateIdle means the worker was created but never started
	ShardStateIdle ShardState = "idle"
	// ShardStateActive means the loop is serving requests
	ShardStateActive ShardState = "active"
	// ShardStateCrashed means the loop exited after a panic and awaits a restart
	ShardStateCrashed ShardState = "crashed"
	// ShardStateStopped means Stop was called; the worker never serves again
	ShardStateStopped ShardState = "stopped"
)

// ShardStats tracks operational statistics for a worker
type ShardStats struct {
	ID       int                `json:"id"`
	Ops      OperationStats     `json:"ops"`
	Storage  storage.StoreStats `json:"storage"`
	Restarts int                `json:"restarts"`
	Queued   int                `json:"queued"`
}

// OperationStats tracks operation counts
type OperationStats struct {
	Hosts    uint64 `json:"hosts"`    // Number of HostGame messages
	Joins    uint64 `json:"joins"`    // Number of JoinGame messages
	States   uint64 `json:"states"`   // Number of GetGameState messages
	Plays    uint64 `json:"plays"`    // Number of PlayCard messages
	Queries  uint64 `json:"queries"`  // Number of DescribeGame and ListGames messages
	Rejected uint64 `json:"rejected"` // Messages answered with a user fault
	Failed   uint64 `json:"failed"`   // Messages answered with an internal error
}

// Worker is one shard of the game engine. A single goroutine drains its
// inbox and runs each message to completion before taking the next, so the
// games this worker owns are never mutated concurrently. Counters and the
// store are touched only by that goroutine.
type Worker struct {
	ID int

	store  storage.Store
	inbox  chan envelope
	quit   chan struct{} // closed by Stop
	exited chan any      // receives the panic value when the loop dies
	logger *log.Logger
	now    func() time.Time
	seeds  cards.SeedSource
	owns   func(game.ID) bool

	startOnce sync.Once
	stopOnce  sync.Once
	started   chan struct{}  // closed by Start
	done      chan struct{}  // closed when the lifecycle goroutine returns
	control   chan lifecycle // State and Restart requests
	restarts  int            // written by the lifecycle goroutine only while no loop runs

	stats OperationStats // owned by the loop goroutine
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger replaces the default "[shard-N] " stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithClock sets the clock used to stamp new games.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// WithSeeds sets the source of shuffle seeds.
func WithSeeds(seeds cards.SeedSource) Option {
	return func(w *Worker) { w.seeds = seeds }
}

// WithQueueSize sets the inbox capacity.
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.inbox = make(chan envelope, n)
		}
	}
}

// WithOwnership restricts ListGames to the ids for which owns returns true.
// It is needed when several workers share one store.
func WithOwnership(owns func(game.ID) bool) Option {
	return func(w *Worker) { w.owns = owns }
}

// NewWorker creates a worker over store. Call Start before sending to it.
func NewWorker(id int, store storage.Store, opts ...Option) *Worker {
	w := &Worker{
		ID:      id,
		store:   store,
		inbox:   make(chan envelope, DefaultQueueSize),
		quit:    make(chan struct{}),
		exited:  make(chan any),
		started: make(chan struct{}),
		done:    make(chan struct{}),
		control: make(chan lifecycle),
		logger:  log.New(os.Stderr, fmt.Sprintf("[shard-%d] ", id), log.LstdFlags),
		now:     time.Now,
		seeds:   cards.RandomSeed,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OwnsKey reports whether this worker serves id.
func (w *Worker) OwnsKey(id game.ID) bool {
	return w.owns == nil || w.owns(id)
}

// Start launches the loop. Calling it again has no effect; use Restart
// after a crash.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		close(w.started)
		go w.supervise()
	})
}

// lifecycle is a request served by the lifecycle goroutine.
type lifecycle struct {
	restart bool
	reply   chan lifecycleReply
}

type lifecycleReply struct {
	state     ShardState
	restarted bool
}

// supervise owns the loop's lifecycle. The loop runs in its own goroutine
// so State and Restart are answered even while a message is in flight.
func (w *Worker) supervise() {
	defer close(w.done)

	exits := make(chan any)
	run := func() { go func() { exits <- w.loop() }() }
	run()

	state := ShardStateActive
	quit := w.quit
	var notify chan any
	var crash any
	for {
		select {
		case c := <-exits:
			if c == nil {
				return
			}
			state, crash, notify = ShardStateCrashed, c, w.exited
		case notify <- crash:
			notify = nil
		case req := <-w.control:
			if req.restart && state == ShardStateCrashed {
				w.restarts++
				state, crash, notify = ShardStateActive, nil, nil
				run()
				w.logger.Printf("loop restarted (%d restarts)", w.restarts)
				req.reply <- lifecycleReply{state: state, restarted: true}
				continue
			}
			req.reply <- lifecycleReply{state: state}
		case <-quit:
			if state == ShardStateCrashed {
				return
			}
			// the loop sees quit too and exits once its message is done
			quit = nil
		}
	}
}

// ask sends a lifecycle request to the lifecycle goroutine, or answers it
// directly when the worker never started or has stopped.
func (w *Worker) ask(restart bool) lifecycleReply {
	select {
	case <-w.started:
	default:
		return lifecycleReply{state: ShardStateIdle}
	}
	req := lifecycle{restart: restart, reply: make(chan lifecycleReply, 1)}
	select {
	case w.control <- req:
		return <-req.reply
	case <-w.done:
		return lifecycleReply{state: ShardStateStopped}
	}
}

// Restart launches a fresh loop on the same inbox once the previous one has
// crashed. Queued messages are kept and state lives in the store, so only
// the message that crashed the loop is lost. It reports whether a loop was
// started; a running, stopped or never started worker is left alone.
func (w *Worker) Restart() bool {
	select {
	case <-w.quit:
		return false
	default:
	}
	return w.ask(true).restarted
}

// Exited delivers the panic value each time the loop dies unexpectedly.
// By the time a value arrives the loop has fully returned and the worker
// reports ShardStateCrashed.
func (w *Worker) Exited() <-chan any {
	return w.exited
}

// Stop ends the loop and answers every message still queued with an
// unavailable error. It waits for the message in flight to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.quit)
		<-w.loopDone()
		for {
			select {
			case env := <-w.inbox:
				env.reply <- result{err: game.Unavailable(env.req.name())}
			default:
				return
			}
		}
	})
}

// State reports the worker's lifecycle state. It is safe to call from any
// goroutine.
func (w *Worker) State() ShardState {
	select {
	case <-w.quit:
		return ShardStateStopped
	default:
	}
	return w.ask(false).state
}

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// loopDone returns a channel closed once no loop can run any more. It is
// already closed when the worker was never started.
func (w *Worker) loopDone() <-chan struct{} {
	select {
	case <-w.started:
		return w.done
	default:
		return closed
	}
}

// loop is the actor: one message at a time, to completion. A panicking
// handler ends the loop; the caller gets an internal error and the panic
// value is returned.
func (w *Worker) loop() (crash any) {
	var current *envelope
	defer func() {
		crash = recover()
		if crash == nil {
			return
		}
		w.logger.Printf("panic handling %s: %v\n%s", current.req.name(), crash, debug.Stack())
		w.stats.Failed++
		current.reply <- result{err: game.Impossible(fmt.Sprintf("%s: panic: %v", current.req.name(), crash))}
	}()

	for {
		select {
		case <-w.quit:
			return nil
		case env := <-w.inbox:
			current = &env
			res := w.handle(env.req)
			w.count(res.err)
			env.reply <- res
			current = nil
		}
	}
}

func (w *Worker) count(err error) {
	switch {
	case err == nil:
	case game.IsUserFault(err):
		w.stats.Rejected++
	default:
		w.stats.Failed++
		w.logger.Printf("internal error: %v", err)
	}
}
