package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startLog records task starts in the order the queue runs them.
type startLog struct {
	mu    sync.Mutex
	names []string
	at    []time.Time
}

func (l *startLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
	l.at = append(l.at, time.Now())
}

func (l *startLog) get() ([]string, []time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...), append([]time.Time(nil), l.at...)
}

// enqueueInOrder submits tasks from separate goroutines, waiting until each
// is queued before submitting the next.
func enqueueInOrder(t *testing.T, q *RequestQueue, tasks ...Task) []chan error {
	t.Helper()
	done := make([]chan error, len(tasks))
	for i, task := range tasks {
		ch := make(chan error, 1)
		done[i] = ch
		before := q.Stats()
		go func() {
			_, err := q.Enqueue(task)
			ch <- err
		}()
		require.Eventually(t, func() bool {
			s := q.Stats()
			return s.QueueLength > before.QueueLength || s.RequestsInWindow > before.RequestsInWindow
		}, time.Second, time.Millisecond)
	}
	return done
}

func TestQueueRunsInOrderWithSpacing(t *testing.T) {
	opts := DefaultQueueOptions()
	opts.MinDelay = 60 * time.Millisecond
	q := NewRequestQueue(opts)
	defer q.Close()

	starts := &startLog{}
	gate := make(chan struct{})
	task := func(name string, wait bool) Task {
		return func(ctx context.Context) TaskResult {
			starts.add(name)
			if wait {
				<-gate
			}
			return Done(name)
		}
	}

	done := enqueueInOrder(t, q, task("a", true), task("b", false), task("c", false))
	close(gate)
	for _, ch := range done {
		require.NoError(t, <-ch)
	}

	names, at := starts.get()
	assert.Equal(t, []string{"a", "b", "c"}, names)
	for i := 1; i < len(at); i++ {
		assert.GreaterOrEqual(t, at[i].Sub(at[i-1]), 55*time.Millisecond)
	}
}

func TestQueueEnqueueReturnsValue(t *testing.T) {
	q := NewRequestQueue(DefaultQueueOptions())
	defer q.Close()

	v, err := q.Enqueue(func(ctx context.Context) TaskResult { return Done(42) })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestQueueRetryGoesFirstAndPauses(t *testing.T) {
	opts := DefaultQueueOptions()
	opts.MinDelay = time.Millisecond
	q := NewRequestQueue(opts)
	defer q.Close()

	starts := &startLog{}
	gate := make(chan struct{})
	attempts := 0
	limited := func(ctx context.Context) TaskResult {
		attempts++
		starts.add("limited")
		if attempts == 1 {
			<-gate
			return Retry(100 * time.Millisecond)
		}
		return Done("ok")
	}
	other := func(ctx context.Context) TaskResult {
		starts.add("other")
		return Done("other")
	}

	done := enqueueInOrder(t, q, limited, other)
	close(gate)
	for _, ch := range done {
		require.NoError(t, <-ch)
	}

	names, at := starts.get()
	require.Equal(t, []string{"limited", "limited", "other"}, names)
	assert.GreaterOrEqual(t, at[1].Sub(at[0]), 100*time.Millisecond)
}

func TestQueueFailedRejectsCallerAndContinues(t *testing.T) {
	q := NewRequestQueue(DefaultQueueOptions())
	defer q.Close()

	boom := errors.New("boom")
	_, err := q.Enqueue(func(ctx context.Context) TaskResult { return Failed(boom) })
	assert.ErrorIs(t, err, boom)

	v, err := q.Enqueue(func(ctx context.Context) TaskResult { return Done("next") })
	require.NoError(t, err)
	assert.Equal(t, "next", v)
}

func TestQueueCloseRejectsPending(t *testing.T) {
	q := NewRequestQueue(DefaultQueueOptions())

	running := func(ctx context.Context) TaskResult {
		<-ctx.Done()
		return Failed(ctx.Err())
	}
	pending := func(ctx context.Context) TaskResult { return Done("never") }

	done := enqueueInOrder(t, q, running, pending)
	q.Close()

	assert.ErrorIs(t, <-done[0], context.Canceled)
	assert.ErrorIs(t, <-done[1], ErrQueueClosed)

	_, err := q.Enqueue(pending)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueStallsWhenWindowIsFull(t *testing.T) {
	q := NewRequestQueue(QueueOptions{
		MinDelay:     time.Millisecond,
		Window:       150 * time.Millisecond,
		MaxPerWindow: 2,
	})
	defer q.Close()

	starts := &startLog{}
	for _, name := range []string{"a", "b", "c"} {
		_, err := q.Enqueue(func(ctx context.Context) TaskResult {
			starts.add(name)
			return Done(nil)
		})
		require.NoError(t, err)
	}

	_, at := starts.get()
	require.Len(t, at, 3)
	assert.Less(t, at[1].Sub(at[0]), 100*time.Millisecond)
	assert.GreaterOrEqual(t, at[2].Sub(at[0]), 145*time.Millisecond)
	assert.Equal(t, 2, q.Stats().RequestsInWindow)
}
