package main

import (
	"context"
	"log"
	"sync"
	"time"
)

type taskKind int

const (
	taskDone taskKind = iota
	taskFailed
	taskRetry
)

// TaskResult tells the queue loop what to do with a finished task.
type TaskResult struct {
	kind  taskKind
	value any
	err   error
	delay time.Duration
}

func Done(v any) TaskResult                { return TaskResult{kind: taskDone, value: v} }
func Failed(err error) TaskResult          { return TaskResult{kind: taskFailed, err: err} }
func Retry(delay time.Duration) TaskResult { return TaskResult{kind: taskRetry, delay: delay} }

// Task is one outbound provider call. The context is the queue's lifetime.
type Task func(ctx context.Context) TaskResult

type QueueOptions struct {
	MinDelay     time.Duration
	Window       time.Duration
	MaxPerWindow int
}

func DefaultQueueOptions() QueueOptions {
	return QueueOptions{
		MinDelay:     200 * time.Millisecond,
		Window:       time.Hour,
		MaxPerWindow: 180,
	}
}

type QueueStats struct {
	QueueLength      int  `json:"queueLength"`
	IsProcessing     bool `json:"isProcessing"`
	RequestsInWindow int  `json:"requestsInHour"`
}

type queueItem struct {
	task   Task
	result chan TaskResult
}

// RequestQueue runs tasks one at a time in submission order, spacing task
// starts by MinDelay and keeping at most MaxPerWindow starts per Window.
type RequestQueue struct {
	opts QueueOptions
	log  *log.Logger
	now  func() time.Time

	mu         sync.Mutex
	items      []*queueItem
	window     []time.Time
	lastStart  time.Time
	processing bool
	closed     bool

	wake    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewRequestQueue(opts QueueOptions) *RequestQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &RequestQueue{
		opts:    opts,
		log:     newLogger("queue"),
		now:     time.Now,
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue blocks until the task has run and returns its value or error.
// There is no way to withdraw a submitted task.
func (q *RequestQueue) Enqueue(task Task) (any, error) {
	item := &queueItem{task: task, result: make(chan TaskResult, 1)}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	res := <-item.result
	return res.value, res.err
}

// Close stops the loop and rejects every task still waiting.
func (q *RequestQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cancel()
	<-q.stopped
}

func (q *RequestQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	inWindow := 0
	for _, ts := range q.window {
		if now.Sub(ts) < q.opts.Window {
			inWindow++
		}
	}
	return QueueStats{
		QueueLength:      len(q.items),
		IsProcessing:     q.processing,
		RequestsInWindow: inWindow,
	}
}

func (q *RequestQueue) run() {
	defer close(q.stopped)
	for {
		item, ok := q.next()
		if !ok {
			q.drain()
			return
		}
		if !q.throttle() {
			q.pushFront(item)
			q.drain()
			return
		}

		res := item.task(q.ctx)
		switch res.kind {
		case taskRetry:
			q.log.Printf("Rate limit exceeded, retrying in %s", res.delay)
			q.pushFront(item)
			if !q.sleep(res.delay) {
				q.drain()
				return
			}
		default:
			item.result <- res
		}

		q.mu.Lock()
		q.processing = false
		q.mu.Unlock()
	}
}

// next pops the head of the queue, waiting for work if it is empty.
func (q *RequestQueue) next() (*queueItem, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.processing = true
			q.mu.Unlock()
			return item, true
		}
		q.mu.Unlock()

		select {
		case <-q.ctx.Done():
			return nil, false
		case <-q.wake:
		}
	}
}

func (q *RequestQueue) pushFront(item *queueItem) {
	q.mu.Lock()
	q.items = append([]*queueItem{item}, q.items...)
	q.processing = false
	q.mu.Unlock()
}

// throttle waits out the minimum spacing and the hourly ceiling, then records
// the task start. It returns false when the queue is closing.
func (q *RequestQueue) throttle() bool {
	q.mu.Lock()
	var wait time.Duration
	if !q.lastStart.IsZero() {
		wait = q.opts.MinDelay - q.now().Sub(q.lastStart)
	}
	q.mu.Unlock()
	if wait > 0 && !q.sleep(wait) {
		return false
	}

	q.mu.Lock()
	now := q.now()
	q.prune(now)
	wait = 0
	if q.opts.MaxPerWindow > 0 && len(q.window) >= q.opts.MaxPerWindow {
		// Waits for the oldest start only, even if many more expire soon after.
		wait = q.opts.Window - now.Sub(q.window[0])
		q.log.Printf("WARN rate limit approaching: %d/%d requests in current window", len(q.window), q.opts.MaxPerWindow)
	}
	q.mu.Unlock()

	if wait > 0 {
		q.log.Printf("Waiting %s for rate limit window...", wait.Round(time.Second))
		if !q.sleep(wait) {
			return false
		}
		q.mu.Lock()
		q.prune(q.now())
		q.mu.Unlock()
	}

	q.mu.Lock()
	q.lastStart = q.now()
	q.window = append(q.window, q.lastStart)
	q.mu.Unlock()
	return true
}

// prune drops window entries older than opts.Window. Caller holds q.mu.
func (q *RequestQueue) prune(now time.Time) {
	keep := q.window[:0]
	for _, ts := range q.window {
		if now.Sub(ts) < q.opts.Window {
			keep = append(keep, ts)
		}
	}
	q.window = keep
}

func (q *RequestQueue) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-q.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (q *RequestQueue) drain() {
	q.mu.Lock()
	pending := q.items
	q.items = nil
	q.processing = false
	q.mu.Unlock()
	for _, item := range pending {
		item.result <- Failed(ErrQueueClosed)
	}
}
