package coordinator

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dreamware/expedition/internal/shard"
)

// Health status values reported per shard.
const (
	StatusUnknown   = "unknown"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ShardHealth tracks the health status of a single shard worker.
// Thread-safe: Protected by Supervisor's mutex when accessed.
type ShardHealth struct {
	LastCheck        time.Time `json:"last_check"`        // Timestamp of the last ping attempt
	LastHealthy      time.Time `json:"last_healthy"`      // Timestamp of the last successful ping
	ShardID          int       `json:"shard_id"`          // Shard being watched
	Status           string    `json:"status"`            // "healthy", "unhealthy" or "unknown"
	ConsecutiveFails int       `json:"consecutive_fails"` // Number of consecutive failed pings
	Restarts         int       `json:"restarts"`          // Loops restarted by the supervisor
}

// Supervisor watches the shard workers of an Engine. It pings every worker
// at a fixed interval, marks a shard unhealthy after maxFailures failed
// pings in a row, and restarts any worker loop that exits after a panic.
// Thread-safe: All methods are safe for concurrent access.
type Supervisor struct {
	shards      map[int]*ShardHealth                             // Current health per shard
	workers     []*shard.Worker                                  // Workers being supervised
	checkFunc   func(ctx context.Context, w *shard.Worker) error // Performs one liveness check
	onUnhealthy func(shardID int)                                // Callback when a shard becomes unhealthy
	logger      *log.Logger
	ctx         context.Context    // Context for cancellation
	cancel      context.CancelFunc // Cancel function for shutdown
	interval    time.Duration      // How often to ping each worker
	timeout     time.Duration      // Deadline for a single ping
	mu          sync.RWMutex       // Protects shards map and stopped
	wg          sync.WaitGroup     // Wait group for graceful shutdown
	maxFailures int                // Failures before marking unhealthy
	stopped     bool               // Set by Stop; Start becomes a no-op
}

// NewSupervisor creates a supervisor for workers that pings each one every
// interval. Shards are marked unhealthy after 3 consecutive failures.
//
// Example:
//
//	sup := NewSupervisor(engine.Workers(), 5*time.Second)
//	go sup.Start(ctx)
//	defer sup.Stop()
func NewSupervisor(workers []*shard.Worker, interval time.Duration) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Supervisor{
		interval:    interval,
		timeout:     time.Second,
		maxFailures: 3,
		shards:      make(map[int]*ShardHealth, len(workers)),
		workers:     workers,
		logger:      log.New(os.Stderr, "[supervisor] ", log.LstdFlags),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, w := range workers {
		s.shards[w.ID] = &ShardHealth{ShardID: w.ID, Status: StatusUnknown}
	}
	return s
}

// SetOnUnhealthy sets the callback invoked when a shard becomes unhealthy.
func (s *Supervisor) SetOnUnhealthy(callback func(shardID int)) {
	s.onUnhealthy = callback
}

// SetCheckFunction overrides the default ping check.
func (s *Supervisor) SetCheckFunction(check func(ctx context.Context, w *shard.Worker) error) {
	s.checkFunc = check
}

// SetMaxFailures sets the number of consecutive failures before a shard is
// marked unhealthy.
func (s *Supervisor) SetMaxFailures(n int) {
	if n > 0 {
		s.maxFailures = n
	}
}

// SetLogger replaces the default "[supervisor] " logger.
func (s *Supervisor) SetLogger(l *log.Logger) {
	s.logger = l
}

// Start runs the supervisor in the current goroutine until ctx or Stop
// cancels it. Crash watchers run in their own goroutines.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	if ctx == nil {
		ctx = s.ctx
	}
	if s.checkFunc == nil {
		s.checkFunc = ping
	}

	for _, w := range s.workers {
		s.wg.Add(1)
		go s.watch(ctx, w)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Printf("supervising %d shards, ping interval %v", len(s.workers), s.interval)

	s.checkAll(ctx)

	for {
		select {
		case <-ticker.C:
			s.checkAll(ctx)
		case <-ctx.Done():
			s.logger.Println("stopping due to context cancellation")
			return
		case <-s.ctx.Done():
			s.logger.Println("stopping due to internal cancellation")
			return
		}
	}
}

// Stop cancels the supervisor and waits for its goroutines to return.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
	s.logger.Println("stopped")
}

// watch restarts w every time its loop exits after a panic.
func (s *Supervisor) watch(ctx context.Context, w *shard.Worker) {
	defer s.wg.Done()
	for {
		select {
		case crash := <-w.Exited():
			s.logger.Printf("shard %d loop exited: %v", w.ID, crash)
			if w.Restart() {
				s.mu.Lock()
				s.shards[w.ID].Restarts++
				s.mu.Unlock()
			}
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		}
	}
}

// checkAll pings every worker concurrently so one stuck shard can't delay
// the others' checks.
func (s *Supervisor) checkAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range s.workers {
		wg.Add(1)
		go func(w *shard.Worker) {
			defer wg.Done()
			s.checkShard(ctx, w)
		}(w)
	}
	wg.Wait()
}

func (s *Supervisor) checkShard(ctx context.Context, w *shard.Worker) {
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.checkFunc(pingCtx, w)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	health := s.shards[w.ID]
	health.LastCheck = time.Now()

	if err == nil {
		if health.Status == StatusUnhealthy {
			s.logger.Printf("shard %d recovered and is now healthy", w.ID)
		}
		health.Status = StatusHealthy
		health.ConsecutiveFails = 0
		health.LastHealthy = health.LastCheck
		return
	}

	health.ConsecutiveFails++
	s.logger.Printf("ping failed for shard %d (attempt %d/%d): %v",
		w.ID, health.ConsecutiveFails, s.maxFailures, err)

	if health.ConsecutiveFails >= s.maxFailures && health.Status != StatusUnhealthy {
		health.Status = StatusUnhealthy
		s.logger.Printf("shard %d marked as unhealthy after %d failures (state %s)",
			w.ID, health.ConsecutiveFails, w.State())
		if s.onUnhealthy != nil {
			// Call callback without holding the lock
			go s.onUnhealthy(w.ID)
		}
	}
}

func ping(ctx context.Context, w *shard.Worker) error {
	return w.Ping(ctx)
}

// GetShardHealth returns a copy of the health record of shardID, or nil if
// the shard is not supervised.
func (s *Supervisor) GetShardHealth(shardID int) *ShardHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	health, exists := s.shards[shardID]
	if !exists {
		return nil
	}
	copied := *health
	return &copied
}

// GetAllShardHealth returns a copy of every shard's health record.
func (s *Supervisor) GetAllShardHealth() map[int]*ShardHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int]*ShardHealth, len(s.shards))
	for id, health := range s.shards {
		copied := *health
		result[id] = &copied
	}
	return result
}

// IsHealthy reports whether shardID answered its last ping.
func (s *Supervisor) IsHealthy(shardID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	health, exists := s.shards[shardID]
	return exists && health.Status == StatusHealthy
}

// Healthy reports whether no shard is currently marked unhealthy.
func (s *Supervisor) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, health := range s.shards {
		if health.Status == StatusUnhealthy {
			return false
		}
	}
	return true
}
