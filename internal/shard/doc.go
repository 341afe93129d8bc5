// Package shard implements the game engine's worker: a single-goroutine
// actor that owns a partition of the session store and applies every
// operation on its games strictly one after another.
//
// # Overview
//
// A Worker is the unit of concurrency in the engine. The router maps each
// game id to exactly one worker, and that worker's loop is the only code
// that ever reads or writes the game. No lock guards game state; exclusive
// access follows from the routing rule plus the serial loop.
//
// # Architecture
//
//	 callers (any number, concurrent)
//	    │  envelope{request, reply chan (cap 1)}
//	    ▼
//	┌─────────────────────────────────────┐
//	│   inbox (bounded channel)           │
//	└─────────────────────────────────────┘
//	    │  one message at a time
//	    ▼
//	┌─────────────────────────────────────┐
//	│   loop                              │
//	│   handle → rules → storage.Store    │
//	│   reply, then take the next message │
//	└─────────────────────────────────────┘
//
// # Messages
//
// Every public method is one message: HostGame, JoinGame, GetGameState,
// PlayCard, DescribeGame, ListGames, Stats and Ping. A caller blocks only
// while the inbox is full or while waiting for its reply, and any number
// of callers may wait at once.
//
// # Failure Handling
//
// Stop closes the worker. Senders and waiters observe it and receive an
// internal error wrapping game.ErrEngineUnavailable; messages still queued
// are answered with the same error.
//
// A panic inside a handler is recovered. The caller whose message was being
// processed gets an internal error, the loop exits and the panic value is
// sent on Exited. Restart starts a new loop on the same inbox; since state
// lives in the store, only the failing message is lost.
//
// # Statistics
//
// Operation counters are plain fields written by the loop and read through
// the Stats message, so they need no atomics.
package shard
