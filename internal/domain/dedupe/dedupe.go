// Package dedupe tracks choice idempotency keys so a retried
// submission is answered with the current state instead of being
// double-counted.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen choice ids to ensure at-most-once application.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if
	// not. Returns true if id was already seen, false if it was newly
	// recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set so the submission can be
	// retried, used when a recorded choice failed to apply.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// defaultMaxSize bounds the seen set; 0 or negative disables eviction.
const defaultMaxSize = 50000

// Option applies a configuration option to the deduper.
type Option func(*ringDeduper)

// WithMaxSize sets the maximum number of ids kept in memory. When the
// bound is reached the oldest recorded id is evicted first. A value
// <= 0 disables eviction entirely.
func WithMaxSize(maxSize int) Option {
	return func(d *ringDeduper) {
		d.maxSize = maxSize
	}
}

// ringDeduper implements Deduper with a map for membership and a ring
// buffer for FIFO eviction order. Unrecorded ids leave a hole in the
// ring that eviction skips over.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// New creates a deduper with configuration options.
func New(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: defaultMaxSize}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		if old := d.ring[d.next]; old != "" {
			if _, ok := d.seen[old]; ok {
				delete(d.seen, old)
				d.size.Add(-1)
			}
		}
		d.ring[d.next] = id
		d.next = (d.next + 1) % d.maxSize
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

func (d *ringDeduper) Size() int64 {
	return d.size.Load()
}
