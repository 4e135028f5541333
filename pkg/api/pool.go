package api

import (
	"context"
	"sync/atomic"
	"time"
)

// WorkerPool bounds the number of analysis requests running at once.
// HTTP and WebSocket requests share the same slots.
type WorkerPool struct {
	sem      chan struct{}
	queued   atomic.Int64
	active   atomic.Int64
	total    atomic.Int64
	rejected atomic.Int64
	timeout  time.Duration
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	MaxWorkers  int           // Max concurrent requests (default: 64)
	WaitTimeout time.Duration // Max wait for a slot (default: 5s)
}

// DefaultPoolConfig returns a PoolConfig with sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxWorkers:  64,
		WaitTimeout: 5 * time.Second,
	}
}

// NewWorkerPool creates a worker pool with the given configuration.
func NewWorkerPool(config PoolConfig) *WorkerPool {
	def := DefaultPoolConfig()
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = def.MaxWorkers
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = def.WaitTimeout
	}
	return &WorkerPool{
		sem:     make(chan struct{}, config.MaxWorkers),
		timeout: config.WaitTimeout,
	}
}

// Acquire waits for a slot until ctx is done or the wait timeout passes.
func (p *WorkerPool) Acquire(ctx context.Context) error {
	p.queued.Add(1)
	defer p.queued.Add(-1)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	select {
	case p.sem <- struct{}{}:
		p.active.Add(1)
		return nil
	case <-ctx.Done():
		p.rejected.Add(1)
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking.
func (p *WorkerPool) TryAcquire() bool {
	select {
	case p.sem <- struct{}{}:
		p.active.Add(1)
		return true
	default:
		p.rejected.Add(1)
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (p *WorkerPool) Release() {
	p.active.Add(-1)
	p.total.Add(1)
	<-p.sem
}

// Do runs fn in a slot.
func (p *WorkerPool) Do(ctx context.Context, fn func()) error {
	if err := p.Acquire(ctx); err != nil {
		return err
	}
	defer p.Release()
	fn()
	return nil
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	Active   int64 `json:"active"`
	Queued   int64 `json:"queued"`
	Total    int64 `json:"total"`
	Rejected int64 `json:"rejected"`
	Max      int   `json:"max"`
}

// Stats returns current pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Active:   p.active.Load(),
		Queued:   p.queued.Load(),
		Total:    p.total.Load(),
		Rejected: p.rejected.Load(),
		Max:      cap(p.sem),
	}
}
