package queue

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	val string
	err error
}

// enqueueInOrder enqueues each op from its own goroutine, waiting for the
// queue to grow before the next one so the FIFO order is deterministic.
func enqueueInOrder(t *testing.T, q *Queue, ops ...func(ctx context.Context) (string, error)) []chan call {
	t.Helper()
	out := make([]chan call, len(ops))
	for i, op := range ops {
		ch := make(chan call, 1)
		out[i] = ch
		base := q.Len()
		go func(op func(ctx context.Context) (string, error)) {
			v, err := Enqueue(context.Background(), q, op)
			ch <- call{v, err}
		}(op)
		require.Eventually(t, func() bool { return q.Len() == base+1 }, time.Second, time.Millisecond)
	}
	return out
}

func TestQueue_FIFODispatchOrder(t *testing.T) {
	q := New("pixabay", Options{})

	var mu sync.Mutex
	var finished []string
	var inFlight, maxInFlight int32
	op := func(name string, work time.Duration) func(ctx context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				m := atomic.LoadInt32(&maxInFlight)
				if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
					break
				}
			}
			time.Sleep(work)
			atomic.AddInt32(&inFlight, -1)
			mu.Lock()
			finished = append(finished, name)
			mu.Unlock()
			return name, nil
		}
	}

	// op 1 takes longest; unserialized, op 2 would finish first
	results := enqueueInOrder(t, q,
		op("1", 40*time.Millisecond),
		op("2", 0),
		op("3", 10*time.Millisecond),
	)
	q.Start(context.Background())
	defer func() { _ = q.Close(context.Background()) }()

	for i, ch := range results {
		r := <-ch
		require.NoError(t, r.err)
		assert.Equal(t, strconv.Itoa(i+1), r.val)
	}
	assert.Equal(t, []string{"1", "2", "3"}, finished)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestQueue_FailureDoesNotStopQueue(t *testing.T) {
	q := New("pixabay", Options{})
	boom := errors.New("upstream 500")

	results := enqueueInOrder(t, q,
		func(ctx context.Context) (string, error) { return "", boom },
		func(ctx context.Context) (string, error) { panic("bad payload") },
		func(ctx context.Context) (string, error) { return "ok", nil },
	)
	q.Start(context.Background())
	defer func() { _ = q.Close(context.Background()) }()

	r := <-results[0]
	assert.ErrorIs(t, r.err, boom)
	r = <-results[1]
	assert.ErrorContains(t, r.err, "panicked")
	r = <-results[2]
	require.NoError(t, r.err)
	assert.Equal(t, "ok", r.val)
}

func TestQueue_PausesUntilReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var slept []time.Duration
	q := New("pixabay", Options{
		Now: func() time.Time { return now },
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	})
	q.Start(context.Background())
	defer func() { _ = q.Close(context.Background()) }()

	h := http.Header{}
	h.Set(HeaderLimit, "100")
	h.Set(HeaderRemaining, "0")
	h.Set(HeaderReset, strconv.FormatInt(now.Add(5*time.Second).Unix(), 10))
	q.UpdateRateLimit(h)

	v, err := Enqueue(context.Background(), q, func(ctx context.Context) (int, error) { return 42, nil })

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, []time.Duration{5 * time.Second}, slept)
}

func TestQueue_NoPauseWhenRemaining(t *testing.T) {
	var slept int32
	q := New("pixabay", Options{
		Sleep: func(ctx context.Context, d time.Duration) error {
			atomic.AddInt32(&slept, 1)
			return nil
		},
	})
	q.Start(context.Background())
	defer func() { _ = q.Close(context.Background()) }()

	h := http.Header{}
	h.Set(HeaderRemaining, "3")
	h.Set(HeaderReset, "60")
	q.UpdateRateLimit(h)

	_, err := Enqueue(context.Background(), q, func(ctx context.Context) (struct{}, error) { return struct{}{}, nil })
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&slept))
}

func TestQueue_UpdateRateLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	q := New("pixabay", Options{Now: func() time.Time { return now }})

	q.UpdateRateLimit(http.Header{"Content-Type": {"application/json"}})
	assert.False(t, q.State().Known, "no headers is a no-op")

	h := http.Header{}
	h.Set(HeaderLimit, "100")
	h.Set(HeaderRemaining, "99")
	h.Set(HeaderReset, "1700000060")
	q.UpdateRateLimit(h)
	assert.Equal(t, RateLimitState{Limit: 100, Remaining: 99, ResetAt: 1_700_000_060, Known: true}, q.State())

	// relative reset seconds
	h = http.Header{}
	h.Set(HeaderRemaining, "0")
	h.Set(HeaderReset, "30")
	q.UpdateRateLimit(h)
	assert.Equal(t, RateLimitState{Limit: 100, Remaining: 0, ResetAt: 1_700_000_030, Known: true}, q.State())

	h = http.Header{}
	h.Set(HeaderRemaining, "not-a-number")
	q.UpdateRateLimit(h)
	assert.Equal(t, 0, q.State().Remaining, "unparseable headers are ignored")
}

func TestQueue_CancelledCallerIsSkipped(t *testing.T) {
	q := New("pixabay", Options{})

	var ran int32
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := Enqueue(ctx, q, func(ctx context.Context) (int, error) {
			atomic.AddInt32(&ran, 1)
			return 1, nil
		})
		errCh <- err
	}()
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	q.Start(context.Background())
	v, err := Enqueue(context.Background(), q, func(ctx context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Zero(t, atomic.LoadInt32(&ran))
	assert.Zero(t, q.Len())
	require.NoError(t, q.Close(context.Background()))
}

func TestQueue_CloseDrainsPending(t *testing.T) {
	q := New("pixabay", Options{})
	results := enqueueInOrder(t, q,
		func(ctx context.Context) (string, error) { return "a", nil },
		func(ctx context.Context) (string, error) { return "b", nil },
	)
	q.Start(context.Background())
	require.NoError(t, q.Close(context.Background()))

	assert.Equal(t, "a", (<-results[0]).val)
	assert.Equal(t, "b", (<-results[1]).val)

	_, err := Enqueue(context.Background(), q, func(ctx context.Context) (string, error) { return "late", nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQueue_CloseTimeoutFailsPending(t *testing.T) {
	q := New("pixabay", Options{})
	release := make(chan struct{})
	defer close(release)

	results := enqueueInOrder(t, q,
		func(ctx context.Context) (string, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return "", ctx.Err()
		},
		func(ctx context.Context) (string, error) { return "never", nil },
	)
	q.Start(context.Background())
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	assert.ErrorIs(t, (<-results[0]).err, context.Canceled)
	assert.ErrorIs(t, (<-results[1]).err, ErrClosed)
}

func TestQueue_CloseBeforeStart(t *testing.T) {
	q := New("pixabay", Options{})
	results := enqueueInOrder(t, q, func(ctx context.Context) (string, error) { return "x", nil })

	require.NoError(t, q.Close(context.Background()))
	assert.ErrorIs(t, (<-results[0]).err, ErrClosed)
}

func TestQueue_Pacing(t *testing.T) {
	q := New("pixabay", Options{Pace: 50, Burst: 1})
	q.Start(context.Background())
	defer func() { _ = q.Close(context.Background()) }()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := Enqueue(context.Background(), q, func(ctx context.Context) (int, error) { return i, nil })
		require.NoError(t, err)
	}
	// burst of one, then two waits of 20ms each
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}
