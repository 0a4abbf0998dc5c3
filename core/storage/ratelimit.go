package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateThrottler is a blocking token bucket. It admits up to capacity
// requests in a burst and refills at a constant rate; Wait blocks until a
// token is available or ctx is done. Safe for concurrent use and intended
// to be shared between clients so the limit applies to the deployment, not
// to a single client.
type RateThrottler struct {
	mu         sync.Mutex
	tokens     int
	lastRefill time.Time

	capacity       int
	refillRate     int
	refillInterval time.Duration
}

// NewRateThrottler creates a throttler that admits at most capacity
// requests in a burst and refills refillRate tokens every refillInterval.
func NewRateThrottler(capacity, refillRate int, refillInterval time.Duration) (*RateThrottler, error) {
	if capacity <= 0 || refillRate <= 0 || refillInterval <= 0 {
		return nil, fmt.Errorf("%w: rate throttler requires positive capacity, rate and interval", ErrInvalidConfig)
	}
	return &RateThrottler{
		tokens:         capacity,
		lastRefill:     time.Now(),
		capacity:       capacity,
		refillRate:     refillRate,
		refillInterval: refillInterval,
	}, nil
}

// Wait consumes one token, blocking until the bucket refills if none is
// available. Returns ctx.Err() if the context ends first.
func (t *RateThrottler) Wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		t.refill(time.Now())
		if t.tokens > 0 {
			t.tokens--
			t.mu.Unlock()
			return nil
		}
		next := t.lastRefill.Add(t.refillInterval)
		t.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill adds the tokens accrued since the last refill. Caller holds the
// lock.
func (t *RateThrottler) refill(now time.Time) {
	elapsed := now.Sub(t.lastRefill)
	// Cap intervals to prevent integer overflow in high-capacity/low-rate
	// scenarios.
	maxIntervals := int64(t.capacity/t.refillRate + 1)
	intervals := int(min(int64(elapsed/t.refillInterval), maxIntervals))
	if intervals > 0 {
		t.tokens = min(t.tokens+intervals*t.refillRate, t.capacity)
		t.lastRefill = now
	}
}
