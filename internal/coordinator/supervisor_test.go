package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/expedition/internal/game"
	"github.com/dreamware/expedition/internal/shard"
	"github.com/dreamware/expedition/internal/storage"
)

func newWorkers(t *testing.T, n int) []*shard.Worker {
	t.Helper()
	workers := make([]*shard.Worker, n)
	for i := range workers {
		w := shard.NewWorker(i, storage.NewMemoryStore(), shard.WithLogger(quiet))
		w.Start()
		t.Cleanup(w.Stop)
		workers[i] = w
	}
	return workers
}

func newTestSupervisor(workers []*shard.Worker, interval time.Duration) *Supervisor {
	s := NewSupervisor(workers, interval)
	s.SetLogger(quiet)
	return s
}

// TestNewSupervisor verifies the defaults and the initial unknown status.
func TestNewSupervisor(t *testing.T) {
	s := newTestSupervisor(newWorkers(t, 3), 5*time.Second)

	assert.Equal(t, 5*time.Second, s.interval)
	assert.Equal(t, time.Second, s.timeout)
	assert.Equal(t, 3, s.maxFailures)
	require.Len(t, s.GetAllShardHealth(), 3)
	for id := 0; id < 3; id++ {
		assert.Equal(t, StatusUnknown, s.GetShardHealth(id).Status)
		assert.False(t, s.IsHealthy(id))
	}
	assert.Nil(t, s.GetShardHealth(99))
	assert.True(t, s.Healthy(), "unknown is not unhealthy")
}

// TestSupervisorPingsWorkers verifies that live workers become healthy.
func TestSupervisorPingsWorkers(t *testing.T) {
	s := newTestSupervisor(newWorkers(t, 3), 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return s.IsHealthy(0) && s.IsHealthy(1) && s.IsHealthy(2)
	}, time.Second, 10*time.Millisecond)

	h := s.GetShardHealth(1)
	assert.Zero(t, h.ConsecutiveFails)
	assert.False(t, h.LastHealthy.IsZero())
	assert.True(t, s.Healthy())
}

// TestSupervisorMarksUnhealthy verifies the failure threshold, the callback
// and recovery.
func TestSupervisorMarksUnhealthy(t *testing.T) {
	workers := newWorkers(t, 2)
	s := newTestSupervisor(workers, 10*time.Millisecond)

	var failing atomic.Bool
	failing.Store(true)
	s.SetCheckFunction(func(ctx context.Context, w *shard.Worker) error {
		if w.ID == 1 && failing.Load() {
			return errors.New("no answer")
		}
		return w.Ping(ctx)
	})

	var mu sync.Mutex
	var reported []int
	s.SetOnUnhealthy(func(shardID int) {
		mu.Lock()
		reported = append(reported, shardID)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return s.GetShardHealth(1).Status == StatusUnhealthy
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, s.GetShardHealth(1).ConsecutiveFails, 3)
	assert.True(t, s.IsHealthy(0))
	assert.False(t, s.Healthy())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1
	}, time.Second, 5*time.Millisecond)

	// stays reported once while it keeps failing
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int{1}, reported)
	mu.Unlock()

	failing.Store(false)
	assert.Eventually(t, func() bool { return s.IsHealthy(1) }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Healthy())
}

// TestSupervisorStoppedWorker verifies a stopped worker fails its pings.
func TestSupervisorStoppedWorker(t *testing.T) {
	workers := newWorkers(t, 2)
	workers[0].Stop()

	s := newTestSupervisor(workers, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return s.GetShardHealth(0).Status == StatusUnhealthy
	}, time.Second, 5*time.Millisecond)
	assert.True(t, s.IsHealthy(1))
}

// panicStore panics on LoadMetadata while armed.
type panicStore struct {
	*storage.MemoryStore
	armed atomic.Bool
}

func (p *panicStore) LoadMetadata(ctx context.Context, id game.ID) (game.Metadata, error) {
	if p.armed.Load() {
		panic("bad record " + id)
	}
	return p.MemoryStore.LoadMetadata(ctx, id)
}

// TestSupervisorRestartsCrashedWorker verifies that a panicking loop is
// brought back and keeps its state.
func TestSupervisorRestartsCrashedWorker(t *testing.T) {
	store := &panicStore{MemoryStore: storage.NewMemoryStore()}
	w := shard.NewWorker(0, store, shard.WithLogger(quiet))
	w.Start()
	defer w.Stop()

	s := newTestSupervisor([]*shard.Worker{w}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)
	defer s.Stop()

	require.NoError(t, w.HostGame(ctx, "g1", "alice"))

	store.armed.Store(true)
	_, err := w.DescribeGame(ctx, "g1")
	require.ErrorIs(t, err, game.ErrInternal)
	store.armed.Store(false)

	assert.Eventually(t, func() bool {
		return s.GetShardHealth(0).Restarts == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, shard.ShardStateActive, w.State())

	meta, err := w.DescribeGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "alice", meta.HostID)
}

// TestSupervisorStop verifies graceful shutdown.
func TestSupervisorStop(t *testing.T) {
	s := newTestSupervisor(newWorkers(t, 2), 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.IsHealthy(0) }, time.Second, 5*time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop")
	}
}

// TestSupervisorStopBeforeStart covers a Start goroutine scheduled after
// Stop already returned: it must not start watching.
func TestSupervisorStopBeforeStart(t *testing.T) {
	s := newTestSupervisor(newWorkers(t, 2), 10*time.Millisecond)
	s.Stop()

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start after Stop did not return")
	}
	assert.Equal(t, StatusUnknown, s.GetShardHealth(0).Status, "no pings after Stop")
}
