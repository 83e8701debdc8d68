// Package ratelimit provides sliding-window admission control for outgoing calls.
//
// A Limiter bounds how many requests may be issued for one logical key
// (for example an endpoint group or a provider name) within a trailing
// time window. It is advisory: callers decide what to do when a request
// is not admitted. State lives in memory for the lifetime of the process.
package ratelimit

import (
	"context"
	"time"
)

// Store holds request timestamps per key.
//
// All methods must be safe for concurrent use.
type Store interface {
	// CheckAndAdd atomically prunes timestamps at or before cutoff, and if the
	// remaining count is below limit, records timestamp.
	//
	// Returns:
	//   - allowed: true if the request was recorded
	//   - count: number of timestamps in the window after the operation
	//   - oldest: the oldest timestamp still inside the window (zero if none)
	CheckAndAdd(ctx context.Context, key string, timestamp, cutoff time.Time, limit int) (allowed bool, count int, oldest time.Time, err error)

	// Oldest returns the oldest timestamp after cutoff for key.
	// The boolean is false when the key has no timestamps in the window.
	Oldest(ctx context.Context, key string, cutoff time.Time) (time.Time, bool, error)

	// Cleanup removes timestamps at or before cutoff and drops empty keys.
	// Returns the number of keys removed.
	Cleanup(ctx context.Context, cutoff time.Time) (int, error)

	// KeyCount returns the number of keys currently tracked.
	KeyCount(ctx context.Context) (int, error)
}

// Metrics records limiter decisions.
//
// Implementations can use Prometheus or discard everything (NoOpMetrics).
type Metrics interface {
	// RecordAllowed records an admitted request for key.
	RecordAllowed(key string)

	// RecordDenied records a rejected request for key.
	RecordDenied(key string)

	// SetActiveKeys records the number of keys held by the store.
	SetActiveKeys(count int)

	// RecordEviction records keys evicted to keep the store bounded.
	RecordEviction(count int)
}

// Clock provides an abstraction for time operations to enable testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
