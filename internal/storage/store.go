package storage

import (
	"context"
	"errors"

	"golang.org/x/exp/maps"

	"github.com/dreamware/expedition/internal/game"
)

var (
	// ErrNotFound is returned when no record exists for a game id
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned by the Create methods for a taken id
	ErrAlreadyExists = errors.New("record already exists")
	// ErrIllegalModification is returned when an update would change the
	// host or replace a guest that is already set
	ErrIllegalModification = errors.New("illegal modification")
)

// Store is the session store: game metadata and game state keyed by game id.
// Any error other than the sentinels above is a backend failure.
type Store interface {
	// CreateMetadata records a new game. Returns ErrAlreadyExists if the id is taken.
	CreateMetadata(ctx context.Context, meta game.Metadata) error

	// UpdateMetadata replaces existing metadata.
	// Returns ErrNotFound or ErrIllegalModification.
	UpdateMetadata(ctx context.Context, meta game.Metadata) error

	// LoadMetadata returns a copy of the stored metadata.
	LoadMetadata(ctx context.Context, id game.ID) (game.Metadata, error)

	// CreateState records the first state of a dealt game.
	CreateState(ctx context.Context, state game.State) error

	// UpdateState replaces an existing state. Returns ErrNotFound.
	UpdateState(ctx context.Context, state game.State) error

	// LoadState returns a deep copy of the stored state.
	LoadState(ctx context.Context, id game.ID) (game.State, error)

	// ListMetadata returns every stored game's metadata. Order is not guaranteed.
	ListMetadata(ctx context.Context) ([]game.Metadata, error)

	// Stats returns storage statistics
	Stats() StoreStats
}

// StoreStats contains statistics about the store
type StoreStats struct {
	Games  int `json:"games"`  // Number of metadata records
	States int `json:"states"` // Number of dealt games
}

// CheckUpdate enforces the metadata update rules shared by every backend:
// the host never changes and a guest, once set, is permanent.
func CheckUpdate(stored, next game.Metadata) error {
	if stored.HostID != next.HostID {
		return ErrIllegalModification
	}
	if stored.GuestID != "" && stored.GuestID != next.GuestID {
		return ErrIllegalModification
	}
	return nil
}

// MemoryStore implements Store with plain maps. It has no locking: each
// shard worker owns its own MemoryStore and is its only caller.
type MemoryStore struct {
	metadata map[game.ID]game.Metadata
	states   map[game.ID]game.State
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		metadata: make(map[game.ID]game.Metadata),
		states:   make(map[game.ID]game.State),
	}
}

func (m *MemoryStore) CreateMetadata(_ context.Context, meta game.Metadata) error {
	if _, exists := m.metadata[meta.ID]; exists {
		return ErrAlreadyExists
	}
	m.metadata[meta.ID] = meta
	return nil
}

func (m *MemoryStore) UpdateMetadata(_ context.Context, meta game.Metadata) error {
	stored, exists := m.metadata[meta.ID]
	if !exists {
		return ErrNotFound
	}
	if err := CheckUpdate(stored, meta); err != nil {
		return err
	}
	m.metadata[meta.ID] = meta
	return nil
}

func (m *MemoryStore) LoadMetadata(_ context.Context, id game.ID) (game.Metadata, error) {
	meta, exists := m.metadata[id]
	if !exists {
		return game.Metadata{}, ErrNotFound
	}
	return meta, nil
}

// CreateState stores a copy so later changes by the caller are not visible.
func (m *MemoryStore) CreateState(_ context.Context, state game.State) error {
	if _, exists := m.states[state.ID]; exists {
		return ErrAlreadyExists
	}
	m.states[state.ID] = state.Clone()
	return nil
}

func (m *MemoryStore) UpdateState(_ context.Context, state game.State) error {
	if _, exists := m.states[state.ID]; !exists {
		return ErrNotFound
	}
	m.states[state.ID] = state.Clone()
	return nil
}

func (m *MemoryStore) LoadState(_ context.Context, id game.ID) (game.State, error) {
	state, exists := m.states[id]
	if !exists {
		return game.State{}, ErrNotFound
	}
	return state.Clone(), nil
}

func (m *MemoryStore) ListMetadata(_ context.Context) ([]game.Metadata, error) {
	return maps.Values(m.metadata), nil
}

// Stats returns storage statistics
func (m *MemoryStore) Stats() StoreStats {
	return StoreStats{
		Games:  len(m.metadata),
		States: len(m.states),
	}
}
