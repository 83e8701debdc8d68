package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Default limits applied when Config leaves them unset.
const (
	DefaultMaxRequests = 100
	DefaultWindow      = 60 * time.Second
)

// Config holds limiter parameters.
type Config struct {
	// MaxRequests is the number of requests admitted per key within Window.
	MaxRequests int

	// Window is the length of the trailing window.
	Window time.Duration

	// MaxKeys bounds the default in-memory store. Zero uses the store default.
	MaxKeys int
}

// Limiter is a sliding-window admission limiter.
//
// For each key it keeps the timestamps of admitted requests inside the
// trailing window. A request is admitted only while fewer than MaxRequests
// timestamps remain after pruning. Rejected requests are not recorded, so a
// client hammering a closed window does not extend its own lockout.
//
// Limiter is safe for concurrent use.
type Limiter struct {
	config  Config
	store   Store
	clock   Clock
	metrics Metrics
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithStore replaces the default in-memory store.
func WithStore(s Store) Option {
	return func(l *Limiter) { l.store = s }
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

// NewLimiter creates a limiter. Zero values in config fall back to
// DefaultMaxRequests and DefaultWindow.
func NewLimiter(config Config, opts ...Option) *Limiter {
	if config.MaxRequests <= 0 {
		config.MaxRequests = DefaultMaxRequests
	}
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}

	l := &Limiter{
		config:  config,
		clock:   &SystemClock{},
		metrics: NewNoOpMetrics(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		mem := NewInMemoryStore(InMemoryStoreConfig{MaxKeys: config.MaxKeys})
		mem.onEvict = l.metrics.RecordEviction
		l.store = mem
	}
	return l
}

// Config returns the effective configuration.
func (l *Limiter) Config() Config {
	return l.config
}

// IsAllowed reports whether a request for key is admitted, recording it if so.
//
// A store failure admits the request; admission control is advisory.
func (l *Limiter) IsAllowed(key string) bool {
	now := l.clock.Now()
	cutoff := now.Add(-l.config.Window)

	allowed, count, _, err := l.store.CheckAndAdd(context.Background(), key, now, cutoff, l.config.MaxRequests)
	if err != nil {
		slog.Warn("admission store failed, allowing request",
			slog.String("key", key),
			slog.Any("error", err))
		return true
	}

	if !allowed {
		l.metrics.RecordDenied(key)
		slog.Debug("admission denied",
			slog.String("key", key),
			slog.Int("count", count),
			slog.Int("limit", l.config.MaxRequests))
		return false
	}

	l.metrics.RecordAllowed(key)
	return true
}

// RetryAfterSeconds returns the whole number of seconds, rounded up, until the
// oldest recorded request for key leaves the window. It returns 0 when key has
// no requests in the window.
func (l *Limiter) RetryAfterSeconds(key string) int {
	now := l.clock.Now()
	cutoff := now.Add(-l.config.Window)

	oldest, ok, err := l.store.Oldest(context.Background(), key, cutoff)
	if err != nil || !ok {
		return 0
	}

	wait := oldest.Add(l.config.Window).Sub(now)
	if wait <= 0 {
		return 0
	}
	return int(math.Ceil(wait.Seconds()))
}

// Cleanup drops keys whose timestamps have all left the window and refreshes
// the active-keys gauge. It is meant to be scheduled periodically.
func (l *Limiter) Cleanup(ctx context.Context) error {
	cutoff := l.clock.Now().Add(-l.config.Window)

	removed, err := l.store.Cleanup(ctx, cutoff)
	if err != nil {
		return err
	}
	keys, err := l.store.KeyCount(ctx)
	if err != nil {
		return err
	}
	l.metrics.SetActiveKeys(keys)

	if removed > 0 {
		slog.Debug("admission limiter cleanup",
			slog.Int("removed_keys", removed),
			slog.Int("active_keys", keys))
	}
	return nil
}
