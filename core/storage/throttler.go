package storage

import "context"

// Throttler is the rate-limiting capability consulted before outbound I/O.
// Implementations are supplied by the engine and shared between clients; the
// storage layer never inspects their internal counters. Wait blocks until the
// limiter admits one request or ctx is done, and blocking inside Wait counts
// as part of the calling operation's blocking time.
type Throttler interface {
	Wait(ctx context.Context) error
}

// ThrottlerFunc adapts a function to the Throttler interface.
type ThrottlerFunc func(ctx context.Context) error

func (f ThrottlerFunc) Wait(ctx context.Context) error { return f(ctx) }

// Unlimited returns a Throttler that admits every request immediately.
// Useful as a default when a direction (read or write) is not rate-limited.
func Unlimited() Throttler {
	return ThrottlerFunc(func(context.Context) error { return nil })
}
