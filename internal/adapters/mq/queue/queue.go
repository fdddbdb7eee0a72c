// Package queue holds pending population reload requests.
//
// Requests are buffered in a bounded channel. A full queue already has a
// reload pending, so the caller can treat a rejected request as coalesced.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/peloton/pkg/metrics"
)

const defaultQueueCapacity = 4

// Triggers that request a reload.
const (
	TriggerStartup = "startup"
	TriggerWatch   = "watch"
	TriggerAPI     = "api"
	TriggerManual  = "manual"
)

// Request asks for the population to be rebuilt.
type Request struct {
	Trigger string
	// Force refetches every rider's results instead of trusting the cache.
	Force bool
	At    time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. It returns false if the queue is full or
	// closed.
	Enqueue(ctx context.Context, r Request) bool

	// Dequeue returns a channel that receives requests as they arrive. The
	// channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Request

	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	metrics.UpdateReloadQueueSize(0)
	return q
}

// Enqueue adds a request to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordReloadRequest("rejected")
		return false
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}

	select {
	case q.requests <- r:
		metrics.RecordReloadRequest("queued")
		metrics.UpdateReloadQueueSize(len(q.requests))
		return true
	case <-ctx.Done():
		metrics.RecordReloadRequest("rejected")
		return false
	default:
		metrics.RecordReloadRequest("coalesced")
		return false
	}
}

// Dequeue returns a channel that will receive requests as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Request {
	out := make(chan Request)
	go func() {
		defer close(out)
		for r := range q.requests {
			select {
			case out <- r:
				metrics.UpdateReloadQueueSize(len(q.requests))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of pending requests.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.requests)
	metrics.UpdateReloadQueueSize(n)
	return n
}

// Close stops accepting requests and closes the dequeue channel once the
// pending ones are drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
