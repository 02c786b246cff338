package rategate

import (
	"context"
	"sync"
	"time"
)

// Gate enforces a minimum interval between successive upstream calls.
// The interval is global across all callers and all cache keys, so a burst
// of concurrent requests is spread out instead of being dropped.
type Gate struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastCallAt  time.Time
}

// New creates a Gate with the given minimum spacing between calls.
func New(minInterval time.Duration) *Gate {
	return &Gate{
		minInterval: minInterval,
		// Allow the first call through immediately.
		lastCallAt: time.Now().Add(-minInterval),
	}
}

// Wait blocks the caller until its call slot arrives.
//
// The slot is reserved under the lock before sleeping: lastCallAt advances
// as soon as the wait is computed, not when the upstream call completes.
// Concurrent callers therefore queue in arrival order, each spaced one
// interval behind the previous, matching the serialization the upstream
// budget requires. Completion order of the calls themselves is not ordered.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()

	var wait time.Duration
	if elapsed := now.Sub(g.lastCallAt); elapsed < g.minInterval {
		wait = g.minInterval - elapsed
	}
	g.lastCallAt = now.Add(wait)
	g.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		// The reserved slot is burnt; the next caller still keeps spacing.
		return ctx.Err()
	}
}

// MinInterval returns the configured spacing between calls.
func (g *Gate) MinInterval() time.Duration {
	return g.minInterval
}
