// Package queue serializes calls to a single external provider.
//
// A Queue owns one worker goroutine that runs enqueued operations strictly in
// FIFO order, one at a time. Before each operation it consults the rate-limit
// state last reported by the provider and pauses the whole queue until the
// reset time when no requests remain.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"wpdesk/internal/observability/metrics"
)

// Header names carrying provider rate-limit state.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// resetDeltaThreshold separates relative reset values (seconds from now)
// from absolute epoch seconds.
const resetDeltaThreshold = 1_000_000_000

// ErrClosed is returned for operations enqueued on, or left pending in, a closed queue.
var ErrClosed = errors.New("queue closed")

// RateLimitState is the provider's rate-limit state from its latest response.
type RateLimitState struct {
	Limit     int
	Remaining int
	// ResetAt is the reset time in epoch seconds.
	ResetAt int64
	// Known is false until a response carrying rate-limit headers is seen.
	Known bool
}

// Options configures a Queue.
type Options struct {
	// Pace, when positive, additionally spaces operations to this many per second.
	Pace rate.Limit
	// Burst is the pacing burst size. Defaults to 1.
	Burst int

	// Now and Sleep replace the system clock in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

type result struct {
	val any
	err error
}

type job struct {
	ctx  context.Context
	run  func(ctx context.Context) (any, error)
	done chan result
}

// Queue is a per-provider FIFO with a single worker.
type Queue struct {
	name  string
	pace  *rate.Limiter
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	pending []*job
	closed  bool
	started bool
	wake    chan struct{}

	stateMu sync.RWMutex
	state   RateLimitState

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a queue for the named provider. Call Start to begin draining.
func New(name string, opts Options) *Queue {
	q := &Queue{
		name:  name,
		now:   opts.Now,
		sleep: opts.Sleep,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	if q.now == nil {
		q.now = time.Now
	}
	if q.sleep == nil {
		q.sleep = sleepContext
	}
	if opts.Pace > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		q.pace = rate.NewLimiter(opts.Pace, burst)
	}
	return q
}

// Name returns the provider name.
func (q *Queue) Name() string {
	return q.name
}

// Start launches the worker. It is a no-op if the queue was already started.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	go q.run(ctx)
}

// Close stops accepting operations and waits for the worker to finish the
// ones already queued. If ctx expires first, the worker is cancelled, the
// remaining operations fail with ErrClosed and ctx.Err() is returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	started := q.started
	q.mu.Unlock()

	if !started {
		q.failPending(ErrClosed)
		return nil
	}
	q.signal()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

// Len returns the number of operations waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// State returns a copy of the current rate-limit state.
func (q *Queue) State() RateLimitState {
	q.stateMu.RLock()
	defer q.stateMu.RUnlock()
	return q.state
}

// UpdateRateLimit overwrites the rate-limit state from response headers.
// It is a no-op when none of the rate-limit headers are present.
//
// X-RateLimit-Reset is accepted both as epoch seconds and as seconds from now.
func (q *Queue) UpdateRateLimit(h http.Header) {
	limit, hasLimit := headerInt(h, HeaderLimit)
	remaining, hasRemaining := headerInt(h, HeaderRemaining)
	reset, hasReset := headerInt(h, HeaderReset)
	if !hasLimit && !hasRemaining && !hasReset {
		return
	}

	q.stateMu.Lock()
	defer q.stateMu.Unlock()

	if hasLimit {
		q.state.Limit = limit
	}
	if hasRemaining {
		q.state.Remaining = remaining
	}
	if hasReset {
		resetAt := int64(reset)
		if resetAt < resetDeltaThreshold {
			resetAt += q.now().Unix()
		}
		q.state.ResetAt = resetAt
	}
	q.state.Known = true
}

// Enqueue appends op to q and waits for it to run.
//
// The returned error is op's own error, ErrClosed, or ctx.Err() when the
// caller gives up first. An operation whose caller has gone away by the time
// it reaches the head of the queue is skipped.
func Enqueue[T any](ctx context.Context, q *Queue, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	j := &job{
		ctx: ctx,
		run: func(ctx context.Context) (any, error) {
			return op(ctx)
		},
		done: make(chan result, 1),
	}
	if err := q.push(j); err != nil {
		return zero, err
	}

	select {
	case res := <-j.done:
		if res.err != nil {
			return zero, res.err
		}
		v, _ := res.val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (q *Queue) push(j *job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("%s: %w", q.name, ErrClosed)
	}
	q.pending = append(q.pending, j)
	depth := len(q.pending)
	q.mu.Unlock()

	metrics.SetQueueDepth(q.name, depth)
	q.signal()
	return nil
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)
	slog.Debug("provider queue started", slog.String("provider", q.name))

	for {
		if !q.waitForWork(ctx) {
			q.failPending(ErrClosed)
			slog.Debug("provider queue stopped", slog.String("provider", q.name))
			return
		}
		if err := q.waitForReset(ctx); err != nil {
			q.failPending(ErrClosed)
			return
		}

		j := q.pop()
		if j == nil {
			continue
		}
		q.execute(ctx, j)
	}
}

// waitForWork blocks until an operation is pending. It returns false when
// the queue is closed and empty, or the worker is cancelled.
func (q *Queue) waitForWork(ctx context.Context) bool {
	for {
		q.mu.Lock()
		n, closed := len(q.pending), q.closed
		q.mu.Unlock()

		if n > 0 {
			return ctx.Err() == nil
		}
		if closed {
			return false
		}

		select {
		case <-q.wake:
		case <-ctx.Done():
			return false
		}
	}
}

// waitForReset pauses while the provider reports no remaining requests.
func (q *Queue) waitForReset(ctx context.Context) error {
	state := q.State()
	if !state.Known || state.Remaining > 0 {
		return nil
	}

	wait := time.Unix(state.ResetAt, 0).Sub(q.now())
	if wait <= 0 {
		return nil
	}

	slog.Info("provider rate limit exhausted, pausing queue",
		slog.String("provider", q.name),
		slog.Int("limit", state.Limit),
		slog.Duration("wait", wait))
	metrics.RecordQueuePause(q.name)

	return q.sleep(ctx, wait)
}

func (q *Queue) pop() *job {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return nil
	}
	j := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	depth := len(q.pending)
	q.mu.Unlock()

	metrics.SetQueueDepth(q.name, depth)
	return j
}

func (q *Queue) execute(ctx context.Context, j *job) {
	if err := j.ctx.Err(); err != nil {
		j.done <- result{err: err}
		return
	}

	// the operation stops when either its caller or the worker is cancelled
	opCtx, cancel := context.WithCancel(j.ctx)
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	defer cancel()

	if q.pace != nil {
		if err := q.pace.Wait(opCtx); err != nil {
			j.done <- result{err: err}
			return
		}
	}

	j.done <- q.safeRun(opCtx, j)
}

func (q *Queue) safeRun(ctx context.Context, j *job) (res result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("queued operation panicked",
				slog.String("provider", q.name),
				slog.Any("panic", r))
			res = result{err: fmt.Errorf("%s: queued operation panicked: %v", q.name, r)}
		}
	}()

	v, err := j.run(ctx)
	return result{val: v, err: err}
}

func (q *Queue) failPending(err error) {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, j := range pending {
		j.done <- result{err: fmt.Errorf("%s: %w", q.name, err)}
	}
	metrics.SetQueueDepth(q.name, 0)
}

func headerInt(h http.Header, key string) (int, bool) {
	v := h.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
