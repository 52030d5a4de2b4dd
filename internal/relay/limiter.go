package relay

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter caps the number of RPCs the service handles concurrently,
// implementing the relay's max_connections setting. Unlike the
// teacher's per-user token bucket, there is no sender identity to key
// by here (sender authentication is out of scope), so this bounds
// total concurrency rather than a per-caller request rate.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter builds a Limiter admitting at most maxConnections
// concurrent RPCs. A non-positive maxConnections means unbounded.
func NewLimiter(maxConnections int) *Limiter {
	if maxConnections <= 0 {
		maxConnections = 1 << 30
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(maxConnections))}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release frees the slot acquired by Acquire.
func (l *Limiter) Release() {
	l.sem.Release(1)
}
