package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dreamware/expedition/internal/game"
)

type metadataRow struct {
	ID        string `gorm:"primaryKey;size:128"`
	HostID    string `gorm:"index;not null"`
	GuestID   string `gorm:"index"`
	Status    string `gorm:"index;size:20;not null"`
	CreatedAt time.Time
}

func (metadataRow) TableName() string { return "game_metadata" }

type stateRow struct {
	ID        string `gorm:"primaryKey;size:128"`
	Data      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (stateRow) TableName() string { return "game_states" }

// SQLStore implements Store on SQLite through gorm. Game state is kept as a
// JSON document. It is safe for concurrent use, so every shard may share
// one SQLStore.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLStore opens (or creates) the database at path and migrates the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLStore(path string) (*SQLStore, error) {
	gormLogger := logger.New(
		log.New(os.Stderr, "[sqlite] ", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// SQLite allows a single writer; one connection also keeps a
	// ":memory:" database alive for the life of the store.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&metadataRow{}, &stateRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying connection.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toMetadataRow(m game.Metadata) metadataRow {
	return metadataRow{
		ID:        m.ID,
		HostID:    m.HostID,
		GuestID:   m.GuestID,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

func (r metadataRow) metadata() game.Metadata {
	return game.Metadata{
		ID:        r.ID,
		HostID:    r.HostID,
		GuestID:   r.GuestID,
		Status:    game.Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// exists reports whether a row with id is present in model's table.
func exists(tx *gorm.DB, model any, id string) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) CreateMetadata(ctx context.Context, meta game.Metadata) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := exists(tx, &metadataRow{}, meta.ID)
		if err != nil {
			return err
		}
		if found {
			return ErrAlreadyExists
		}
		row := toMetadataRow(meta)
		return tx.Create(&row).Error
	})
}

func (s *SQLStore) UpdateMetadata(ctx context.Context, meta game.Metadata) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored metadataRow
		if err := tx.First(&stored, "id = ?", meta.ID).Error; err != nil {
			return translate(err)
		}
		if err := CheckUpdate(stored.metadata(), meta); err != nil {
			return err
		}
		row := toMetadataRow(meta)
		return tx.Save(&row).Error
	})
}

func (s *SQLStore) LoadMetadata(ctx context.Context, id game.ID) (game.Metadata, error) {
	var row metadataRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return game.Metadata{}, translate(err)
	}
	return row.metadata(), nil
}

func (s *SQLStore) CreateState(ctx context.Context, state game.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", state.ID, err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := exists(tx, &stateRow{}, state.ID)
		if err != nil {
			return err
		}
		if found {
			return ErrAlreadyExists
		}
		return tx.Create(&stateRow{ID: state.ID, Data: data}).Error
	})
}

func (s *SQLStore) UpdateState(ctx context.Context, state game.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", state.ID, err)
	}
	res := s.db.WithContext(ctx).Model(&stateRow{}).Where("id = ?", state.ID).Updates(map[string]any{
		"data":       data,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) LoadState(ctx context.Context, id game.ID) (game.State, error) {
	var row stateRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return game.State{}, translate(err)
	}
	var state game.State
	if err := json.Unmarshal(row.Data, &state); err != nil {
		return game.State{}, fmt.Errorf("decode state %s: %w", id, err)
	}
	return state, nil
}

func (s *SQLStore) ListMetadata(ctx context.Context) ([]game.Metadata, error) {
	var rows []metadataRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]game.Metadata, len(rows))
	for i, r := range rows {
		out[i] = r.metadata()
	}
	return out, nil
}

// Stats returns storage statistics. Counting errors are logged and
// reported as zero.
func (s *SQLStore) Stats() StoreStats {
	var games, states int64
	if err := s.db.Model(&metadataRow{}).Count(&games).Error; err != nil {
		log.Printf("[sqlite] count metadata: %v", err)
	}
	if err := s.db.Model(&stateRow{}).Count(&states).Error; err != nil {
		log.Printf("[sqlite] count states: %v", err)
	}
	return StoreStats{Games: int(games), States: int(states)}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
