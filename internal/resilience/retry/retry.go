// Package retry classifies upstream failures and retries transient ones with exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Config holds the configuration for retry logic.
type Config struct {
	// Name identifies the caller in logs and metrics (usually the provider name)
	Name string

	// MaxRetries is the number of retries after the first attempt
	MaxRetries int

	// BaseDelay is the delay before the first retry; it doubles on each attempt
	BaseDelay time.Duration

	// MaxDelay caps the computed exponential delay. Zero means no cap.
	// A delay declared by the upstream is never capped.
	MaxDelay time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each wait. Optional.
	OnRetry func(attempt int, delay time.Duration, ce *ClassifiedError)
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
	}
}

// CMSConfig returns configuration for calls to a WordPress site.
// Writes are user-facing, so the exponential part is capped.
func CMSConfig() Config {
	return Config{
		Name:       "wordpress",
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
	}
}

// Do executes op with retry logic and returns its result.
//
// op is attempted up to MaxRetries+1 times. Each failure is classified; a
// non-retryable failure or the last failure is returned as *ClassifiedError.
// Between attempts it waits max(RetryAfterSeconds, BaseDelay*2^attempt).
// Only the calling goroutine waits.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 0 {
				slog.Info("operation succeeded after retry",
					slog.String("name", cfg.Name),
					slog.Int("attempt", attempt+1))
			}
			return result, nil
		}

		ce := Classify(err)
		if !ce.Retryable {
			slog.Warn("non-retryable error, aborting",
				slog.String("name", cfg.Name),
				slog.Int("attempt", attempt+1),
				slog.String("code", string(ce.Code)),
				slog.Any("error", err))
			return zero, ce
		}
		if attempt >= cfg.MaxRetries {
			slog.Warn("retry budget exhausted",
				slog.String("name", cfg.Name),
				slog.Int("attempts", attempt+1),
				slog.String("code", string(ce.Code)),
				slog.Any("error", err))
			return zero, ce
		}

		delay := Backoff(cfg, attempt, ce)
		slog.Warn("operation failed, retrying",
			slog.String("name", cfg.Name),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", cfg.MaxRetries+1),
			slog.Duration("delay", delay),
			slog.String("code", string(ce.Code)),
			slog.Any("error", err))
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, delay, ce)
		}

		if err := sleep(ctx, delay); err != nil {
			// the caller gave up; report the last upstream failure
			return zero, ce
		}
	}
}

// WithRetry is Do for operations that produce no value.
func WithRetry(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	_, err := Do(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Backoff computes the wait before the next attempt. attempt is zero-based.
func Backoff(cfg Config, attempt int, ce *ClassifiedError) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := cfg.BaseDelay * time.Duration(1<<uint(attempt))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	if declared := ce.RetryAfter(); declared > delay {
		delay = declared
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
