// Package coordinator is the control plane of the game engine: it routes
// each game to its shard worker, exposes the engine's client handle and
// supervises the worker pool.
//
// # Overview
//
// The engine is a fixed pool of shard workers (package shard). Every game
// id maps to exactly one worker through Route, so all requests for a game
// are processed by one goroutine, one at a time. Different games proceed in
// parallel on different workers.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│           COORDINATOR               │
//	├─────────────────────────────────────┤
//	│  ┌──────────────────────────────┐   │
//	│  │   Route                      │   │
//	│  │   - FNV-1a 64 of the game id │   │
//	│  │   - modulo the shard count   │   │
//	│  └──────────────────────────────┘   │
//	│  ┌──────────────────────────────┐   │
//	│  │   Engine                     │   │
//	│  │   - input checks             │   │
//	│  │   - send + await per call    │   │
//	│  │   - scatter/gather queries   │   │
//	│  └──────────────────────────────┘   │
//	│  ┌──────────────────────────────┐   │
//	│  │   Supervisor                 │   │
//	│  │   - periodic pings           │   │
//	│  │   - restart crashed loops    │   │
//	│  └──────────────────────────────┘   │
//	└─────────────────────────────────────┘
//	        │        │        │
//	        ▼        ▼        ▼
//	    shard-0  shard-1  shard-N
//
// # Core Components
//
// Route: pure function from game id and shard count to a shard id
//   - deterministic across calls and restarts
//   - even spread over sequential ids
//
// Engine: the handle callers use
//   - rejects malformed input before routing
//   - applies the configured timeout when the caller set no deadline
//   - queries fan out to every shard and merge results by creation time
//   - a closed worker yields game.ErrEngineUnavailable, never a rule error
//
// Supervisor: keeps the pool alive
//   - pings each worker every interval with a timeout
//   - marks a shard unhealthy after consecutive failures and calls back
//   - restarts a worker loop that exited after a panic
//
// # Usage Examples
//
//	engine := coordinator.NewEngine(coordinator.EngineConfig{Shards: 8})
//	defer engine.Close()
//
//	sup := coordinator.NewSupervisor(engine.Workers(), 5*time.Second)
//	go sup.Start(ctx)
//	defer sup.Stop()
//
//	if err := engine.HostGame(ctx, "g1", "alice"); err != nil {
//	    log.Printf("host failed: %v", err)
//	}
package coordinator
