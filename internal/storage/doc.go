// Package storage is the session store: the persistence layer that holds
// each game's metadata and its full server-side state, keyed by game id.
//
// # Overview
//
// Every game is stored as two records:
//
//	┌──────────────────────┐      ┌──────────────────────────┐
//	│     game.Metadata    │      │        game.State        │
//	│ host, guest, status  │      │ hands, plays, discards,  │
//	│ created_at           │      │ main pile, turn, seed    │
//	└──────────────────────┘      └──────────────────────────┘
//	   written by HostGame          written once the guest
//	   and JoinGame                 joins and cards are dealt
//
// The Store interface is the only contract shard workers rely on. Every
// method reports one of the sentinel errors or a backend failure, which the
// worker turns into an internal error.
//
// # Update Rules
//
// Metadata is append-only where it matters:
//   - the host id never changes
//   - a guest, once attached, can't be replaced or cleared
//
// Violations return ErrIllegalModification. CheckUpdate implements the rule
// for every backend.
//
// # Implementations
//
// MemoryStore: plain maps, no locking
//   - one instance per shard worker
//   - the worker loop is its only caller, so access is already serial
//   - loads and stores deep copies, callers never alias stored state
//
// SQLStore: SQLite through gorm (pure Go driver, no cgo)
//   - one instance shared by every shard
//   - state is persisted as a JSON document
//   - a single connection serializes writers
//   - each key is still touched by exactly one worker
//
// # Usage Examples
//
//	store := storage.NewMemoryStore()
//	err := store.CreateMetadata(ctx, game.Metadata{ID: "g1", HostID: "alice"})
//	if errors.Is(err, storage.ErrAlreadyExists) {
//	    log.Println("game id taken")
//	}
//
//	sqlStore, err := storage.OpenSQLStore("/var/lib/expedition/games.db")
//	if err != nil {
//	    log.Fatalf("open store: %v", err)
//	}
//	defer sqlStore.Close()
package storage
