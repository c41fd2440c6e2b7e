// Package queue defines the contract for enqueuing and consuming
// contributions on their way to the processing workers.
//
// The default implementation is an in-memory bounded queue backed by a
// buffered channel.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/helixhq/helix/internal/domain/model"
	"github.com/helixhq/helix/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 100000
	defaultBufferSize    = 100000
)

// Contribution is the payload type flowing through the queue.
type Contribution = model.Contribution

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a contribution to the queue.
	// Returns false if the queue is full and nothing was enqueued.
	Enqueue(ctx context.Context, c Contribution) bool

	// Dequeue returns a channel receiving contributions as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Contribution

	// Len returns the current number of queued contributions.
	Len(ctx context.Context) int

	// Close shuts down the queue. After closing, no new contributions
	// can be enqueued and the dequeue channel is closed. Closing an
	// already closed queue returns ErrClosed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	contributions chan Contribution
	capacity      int
	bufferSize    int
	mu            sync.RWMutex
	closed        bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.contributions = make(chan Contribution, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a contribution to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Contribution) bool {
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if len(q.contributions) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.contributions <- c:
		metrics.RecordQueueEnqueue()
		q.publishSize()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel receiving contributions as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Contribution {
	out := make(chan Contribution)
	go func() {
		defer close(out)
		for contribution := range q.contributions {
			select {
			case out <- contribution:
				metrics.RecordQueueDequeue()
				q.publishSize()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued contributions.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.publishSize()
	return len(q.contributions)
}

// Close shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	close(q.contributions)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) publishSize() {
	size := len(q.contributions)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
