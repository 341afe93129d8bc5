package main

import (
	"fmt"
	"log"

	"github.com/gorilla/websocket"

	"github.com/dreamware/expedition/internal/config"
	"github.com/dreamware/expedition/internal/coordinator"
	"github.com/dreamware/expedition/internal/storage"
)

// app wires the engine, its supervisor and the store together.
type app struct {
	engine     *coordinator.Engine
	supervisor *coordinator.Supervisor
	upgrader   websocket.Upgrader
	logger     *log.Logger
	closeStore func() error
}

func newApp(cfg config.Config, logger *log.Logger) (*app, error) {
	stores, closeStore, err := openStores(cfg.Storage)
	if err != nil {
		return nil, err
	}

	engine := coordinator.NewEngine(coordinator.EngineConfig{
		Shards:    cfg.Shards,
		QueueSize: cfg.QueueSize,
		Timeout:   cfg.RequestTimeout,
		Store:     stores,
		Logger:    logger,
	})

	sup := coordinator.NewSupervisor(engine.Workers(), cfg.Supervisor.Interval)
	sup.SetMaxFailures(cfg.Supervisor.MaxFailures)
	sup.SetLogger(log.New(logger.Writer(), "[supervisor] ", logger.Flags()))
	sup.SetOnUnhealthy(func(shardID int) {
		w := engine.Workers()[shardID]
		if w.Restart() {
			logger.Printf("shard %d restarted after failed pings", shardID)
			return
		}
		logger.Printf("shard %d is unhealthy in state %s", shardID, w.State())
	})

	return &app{
		engine:     engine,
		supervisor: sup,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:     logger,
		closeStore: closeStore,
	}, nil
}

// Close stops the engine, then releases the store.
func (a *app) Close() {
	a.engine.Close()
	if err := a.closeStore(); err != nil {
		a.logger.Printf("close store: %v", err)
	}
}

// openStores returns the store factory for the engine. The memory driver
// gives every shard its own store; sqlite shares one database.
func openStores(cfg config.StorageConfig) (func(int) storage.Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return func(int) storage.Store { return storage.NewMemoryStore() },
			func() error { return nil }, nil
	case config.DriverSQLite:
		db, err := storage.OpenSQLStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return func(int) storage.Store { return db }, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
