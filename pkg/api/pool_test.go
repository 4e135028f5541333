package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolBasic(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxWorkers: 2})

	ctx := context.Background()
	if err := pool.Acquire(ctx); err != nil {
		t.Fatalf("Failed to acquire worker: %v", err)
	}

	stats := pool.Stats()
	if stats.Active != 1 {
		t.Errorf("Expected 1 active worker, got %d", stats.Active)
	}

	pool.Release()
	stats = pool.Stats()
	if stats.Active != 0 {
		t.Errorf("Expected 0 active workers after release, got %d", stats.Active)
	}
	if stats.Total != 1 {
		t.Errorf("Expected 1 total request, got %d", stats.Total)
	}
}

func TestWorkerPoolTryAcquire(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxWorkers: 1})

	if !pool.TryAcquire() {
		t.Fatal("Should acquire the only worker")
	}
	if pool.TryAcquire() {
		t.Error("Should not be able to acquire a second worker")
	}
	pool.Release()

	stats := pool.Stats()
	if stats.Rejected != 1 {
		t.Errorf("Expected 1 rejected request, got %d", stats.Rejected)
	}
	if !pool.TryAcquire() {
		t.Error("Should acquire after release")
	}
	pool.Release()
}

func TestWorkerPoolContextCancellation(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxWorkers: 1})

	ctx := context.Background()
	if err := pool.Acquire(ctx); err != nil {
		t.Fatalf("Failed to acquire worker: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.Acquire(cancelCtx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	pool.Release()
}

func TestWorkerPoolWaitTimeout(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxWorkers: 1, WaitTimeout: 10 * time.Millisecond})

	ctx := context.Background()
	if err := pool.Acquire(ctx); err != nil {
		t.Fatalf("Failed to acquire worker: %v", err)
	}

	err := pool.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}

	pool.Release()
}

func TestWorkerPoolConcurrency(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxWorkers: 3})

	var wg sync.WaitGroup
	var running, peak atomic.Int64
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Do(ctx, func() {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
	}

	wg.Wait()

	stats := pool.Stats()
	if stats.Total != 10 {
		t.Errorf("Expected 10 total requests, got %d", stats.Total)
	}
	if peak.Load() > 3 {
		t.Errorf("Peak concurrency = %d, want <= 3", peak.Load())
	}
}

func TestWorkerPoolDefaults(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{})

	stats := pool.Stats()
	if stats.Max != DefaultPoolConfig().MaxWorkers {
		t.Errorf("Expected Max=%d, got %d", DefaultPoolConfig().MaxWorkers, stats.Max)
	}
}
