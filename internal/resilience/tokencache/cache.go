// Package tokencache holds one bearer token per OAuth provider and refreshes it on expiry.
package tokencache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL applies when the token endpoint does not report expires_in.
const DefaultTTL = 3600 * time.Second

// ErrNoToken is returned when no token could be obtained.
var ErrNoToken = errors.New("no access token available")

// Fetcher performs one token exchange. A zero ttl means the provider did not say.
type Fetcher interface {
	FetchToken(ctx context.Context) (value string, ttl time.Duration, err error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (string, time.Duration, error)

// FetchToken implements Fetcher.
func (f FetcherFunc) FetchToken(ctx context.Context) (string, time.Duration, error) {
	return f(ctx)
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// Cache serves a cached token while it is valid and coalesces concurrent refreshes.
type Cache struct {
	name    string
	fetcher Fetcher
	now     func() time.Time

	mu    sync.RWMutex
	token *cachedToken

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache for the named provider.
func New(name string, fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		name:    name,
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the cached token, fetching a new one when it is absent or expired.
// Concurrent callers that miss the cache share a single fetch.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if v, ok := c.cached(); ok {
		return v, nil
	}

	ch := c.group.DoChan("token", func() (interface{}, error) {
		// another caller may have refreshed while we waited to enter
		if v, ok := c.cached(); ok {
			return v, nil
		}
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate drops the cached token so the next call fetches a fresh one.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
	slog.Debug("access token invalidated", slog.String("provider", c.name))
}

// ExpiresAt reports the expiry of the cached token, if any.
func (c *Cache) ExpiresAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return time.Time{}, false
	}
	return c.token.expiresAt, true
}

func (c *Cache) cached() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != nil && c.now().Before(c.token.expiresAt) {
		return c.token.value, true
	}
	return "", false
}

func (c *Cache) refresh(ctx context.Context) (string, error) {
	value, ttl, err := c.fetcher.FetchToken(ctx)
	if err != nil {
		c.clear()
		slog.Warn("access token fetch failed",
			slog.String("provider", c.name),
			slog.Any("error", err))
		return "", fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	if value == "" {
		c.clear()
		return "", fmt.Errorf("%w: empty token from %s", ErrNoToken, c.name)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	tok := &cachedToken{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()

	slog.Debug("access token refreshed",
		slog.String("provider", c.name),
		slog.Time("expires_at", tok.expiresAt))
	return value, nil
}

func (c *Cache) clear() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}
