// Package queue implements the bounded concurrent execution of download
// jobs: admission is credit-based, never unbounded fan-out.
package queue

import (
	"context"
	"sync"
)

// Queue runs tasks concurrently, at most limit at a time. Submit blocks
// while the queue is at capacity; Drain hands back each completed outcome
// exactly once, in completion order.
type Queue[T any] struct {
	sem chan struct{}

	mu       sync.Mutex
	cond     *sync.Cond
	inflight int
	pending  []T
}

// New creates a queue that runs at most limit tasks at once.
func New[T any](limit int) *Queue[T] {
	if limit < 1 {
		limit = 1
	}
	q := &Queue[T]{sem: make(chan struct{}, limit)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Submit starts run on its own goroutine once a slot is free. It blocks
// while limit tasks are in flight and returns only after the task has been
// admitted, or with the context error if ctx is cancelled first.
func (q *Queue[T]) Submit(ctx context.Context, run func(context.Context) T) error {
	select {
	case q.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	q.mu.Lock()
	q.inflight++
	q.mu.Unlock()

	go func() {
		out := run(ctx)

		q.mu.Lock()
		q.inflight--
		q.pending = append(q.pending, out)
		q.cond.Broadcast()
		q.mu.Unlock()

		<-q.sem
	}()

	return nil
}

// Drain blocks until every in-flight task has completed, passing each
// outcome to report as it becomes available. The caller must drain before
// abandoning the queue, or completed work is never reported.
func (q *Queue[T]) Drain(report func(T)) {
	q.mu.Lock()
	for {
		for len(q.pending) == 0 && q.inflight > 0 {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		out := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		report(out)

		q.mu.Lock()
	}
}
