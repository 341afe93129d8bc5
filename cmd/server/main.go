// Package main implements the expedition game server: an HTTP and
// websocket front end over the sharded game engine.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                Server                   │
//	├─────────────────────────────────────────┤
//	│  HTTP API:                              │
//	│    POST /games              - host      │
//	│    POST /games/{id}/join    - join      │
//	│    GET  /games/{id}         - view      │
//	│    GET  /games/{id}/metadata            │
//	│    POST /games/{id}/plays   - move      │
//	│    GET  /games              - list      │
//	│    GET  /health, /shards    - ops       │
//	│    GET  /ws                 - commands  │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    Engine      - shard worker pool      │
//	│    Supervisor  - pings and restarts     │
//	│    Store       - memory or sqlite       │
//	└─────────────────────────────────────────┘
//
// Configuration (see package config):
//   - EXPEDITION_CONFIG: optional YAML file
//   - EXPEDITION_LISTEN: listen address (default ":8080")
//   - EXPEDITION_SHARDS: worker count (default one per CPU, at least 3)
//   - EXPEDITION_STORAGE: "memory" or "sqlite"
//   - EXPEDITION_SQLITE_PATH: database file for sqlite
//
// Example usage:
//
//	EXPEDITION_STORAGE=sqlite EXPEDITION_SQLITE_PATH=games.db ./server
//
//	curl -X POST localhost:8080/games -d '{"player_id":"alice"}'
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamware/expedition/internal/config"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

func main() {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		logFatal("config: %v", err)
		return
	}

	app, err := newApp(cfg, log.Default())
	if err != nil {
		logFatal("start: %v", err)
		return
	}

	supCtx, stopSupervisor := context.WithCancel(context.Background())
	go app.supervisor.Start(supCtx)

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           app.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s (%d shards, %s storage)",
			cfg.Listen, app.engine.ShardCount(), cfg.Storage.Driver)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	stopSupervisor()
	app.supervisor.Stop()
	app.Close()
	log.Println("server stopped")
}
