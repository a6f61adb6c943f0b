// Package persist moves session snapshots from the request path to durable
// storage. Handlers enqueue a snapshot after each mutation; a pool of writers
// drains the queue into the snapshot store so HTTP latency never pays for a
// disk write.
package persist

import (
	"context"
	"sync"
	"time"

	"github.com/okian/keepsake/internal/domain/model"
	"github.com/okian/keepsake/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Snapshot is the payload type flowing through the queue. Producers must
// enqueue a deep copy so writers never observe a session mid-mutation.
type Snapshot = *model.Session

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot to the queue.
	// Returns false if the queue is full and the snapshot was dropped.
	Enqueue(ctx context.Context, snap Snapshot) bool

	// Dequeue returns a channel that will receive snapshots as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Snapshot

	// Len returns the current number of queued snapshots.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// snapshots can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	snapshots  chan Snapshot
	capacity   int
	bufferSize int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...QueueOption) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.snapshots = make(chan Snapshot, q.bufferSize)

	metrics.UpdateSnapshotQueueCapacity(q.capacity)
	metrics.UpdateSnapshotQueueSize(0)
	metrics.UpdateSnapshotQueueUtilization(0.0)

	return q
}

// Enqueue adds a snapshot to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, snap Snapshot) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordSnapshotEnqueueError()
		metrics.RecordErrorByComponent("snapshot_queue", "closed")
		return false
	}

	if len(q.snapshots) >= q.capacity {
		metrics.RecordSnapshotEnqueueError()
		metrics.RecordErrorByComponent("snapshot_queue", "capacity_exceeded")
		return false
	}

	select {
	case q.snapshots <- snap:
		metrics.RecordSnapshotEnqueue()
		currentSize := len(q.snapshots)
		metrics.UpdateSnapshotQueueSize(currentSize)
		metrics.UpdateSnapshotQueueUtilization(float64(currentSize) / float64(q.capacity))
		return true
	case <-ctx.Done():
		metrics.RecordSnapshotEnqueueError()
		metrics.RecordErrorByComponent("snapshot_queue", "context_cancelled")
		return false
	default:
		metrics.RecordSnapshotEnqueueError()
		metrics.RecordErrorByComponent("snapshot_queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive snapshots as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		for snap := range q.snapshots {
			select {
			case out <- snap:
				currentSize := len(q.snapshots)
				metrics.UpdateSnapshotQueueSize(currentSize)
				metrics.UpdateSnapshotQueueUtilization(float64(currentSize) / float64(q.capacity))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.snapshots)
	metrics.UpdateSnapshotQueueSize(size)
	metrics.UpdateSnapshotQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.snapshots)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// drainTimeout bounds how long Flush waits for the queue to empty.
const drainTimeout = 50 * time.Millisecond

// Flush blocks until the queue is empty or ctx is done. It is used during
// shutdown so queued snapshots reach disk before the store closes.
func (q *InMemoryQueue) Flush(ctx context.Context) error {
	ticker := time.NewTicker(drainTimeout)
	defer ticker.Stop()

	for {
		if len(q.snapshots) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
