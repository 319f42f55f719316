// Package queue provides the unbounded event queue merging all capture
// readers into one outgoing stream.
package queue

import (
	"context"
	"errors"
	"sync"

	ring "github.com/eapache/queue"

	"netboard/internal/input"
)

// ErrClosed is returned by Push and Pop once the queue has been closed.
var ErrClosed = errors.New("queue: closed")

// Queue is an unbounded many-producer, single-consumer FIFO of input events.
// Events pushed by one producer keep their relative order.
type Queue struct {
	mu     sync.Mutex
	items  *ring.Queue
	closed bool

	// ready holds a token while items may be waiting.
	ready chan struct{}
	done  chan struct{}
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		items: ring.New(),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push appends an event. It never blocks.
func (q *Queue) Push(ev input.Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items.Add(ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes the oldest event, waiting until one is available, the queue is
// closed or ctx is done. Events still queued at Close are abandoned.
func (q *Queue) Pop(ctx context.Context) (input.Event, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return input.Event{}, ErrClosed
		}
		if q.items.Length() > 0 {
			ev := q.items.Remove().(input.Event)
			q.mu.Unlock()
			return ev, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return input.Event{}, ctx.Err()
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Close rejects further pushes and wakes the consumer. It is safe to call
// more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}
