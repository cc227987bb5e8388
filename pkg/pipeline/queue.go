package pipeline

import (
	"context"
	"sync"
)

// Queue is a FIFO shared by producers and a pool of consumers.
//
// A capacity <= 0 makes the queue unbounded. With a positive capacity Push
// blocks while the queue is full, which is how the pipeline applies
// backpressure to the frame source. Close wakes every waiter: blocked
// producers get ErrQueueClosed and consumers drain what is left, then see
// ok == false.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    []T
	capacity int
	closed   bool
}

// NewQueue creates a queue. capacity <= 0 means unbounded.
func NewQueue[T any](capacity int) *Queue[T] {
	q := &Queue[T]{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Bounded reports whether Push can block.
func (q *Queue[T]) Bounded() bool {
	return q.capacity > 0
}

// Capacity returns the configured capacity (0 for unbounded queues).
func (q *Queue[T]) Capacity() int {
	if q.capacity < 0 {
		return 0
	}
	return q.capacity
}

// Push appends an item, blocking while a bounded queue is full.
func (q *Queue[T]) Push(item T) error {
	return q.PushContext(context.Background(), item)
}

// PushContext is Push that gives up when ctx is done.
func (q *Queue[T]) PushContext(ctx context.Context, item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.full() && !q.closed {
		// sync.Cond has no select; a cancelled ctx broadcasts instead.
		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.notFull.Broadcast()
			q.mu.Unlock()
		})
		defer stop()

		for q.full() && !q.closed {
			if err := ctx.Err(); err != nil {
				return err
			}
			q.notFull.Wait()
		}
	}

	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, item)
	q.notEmpty.Signal()
	return nil
}

// Pop removes the oldest item, blocking while the queue is empty and open.
// ok is false once the queue is closed and empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return item, false
	}

	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	q.notFull.Signal()
	return item, true
}

// Close stops the queue from accepting items and wakes all waiters.
// Items already queued can still be popped. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Drain removes and returns every queued item.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	q.notFull.Broadcast()
	return items
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue[T]) full() bool {
	return q.capacity > 0 && len(q.items) >= q.capacity
}
