package persist

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/keepsake/internal/domain/model"
	"github.com/okian/keepsake/pkg/logger"
	"github.com/okian/keepsake/pkg/metrics"
)

// Default writer configuration constants.
const (
	defaultWriterMultiplier = 2 // multiplier for runtime.NumCPU()
	writerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Store is where writers put snapshots.
type Store interface {
	Put(ctx context.Context, sess *model.Session) error
}

// Source defines how writers receive snapshots.
type Source interface {
	Dequeue(ctx context.Context) <-chan Snapshot
}

// Writer drains snapshots off the queue and writes them to the store.
type Writer struct {
	source Source
	store  Store
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWriter creates a writer with configuration options.
func NewWriter(source Source, store Store, opts ...WriterOption) *Writer {
	w := &Writer{
		source:   source,
		store:    store,
		name:     "writer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("snapshot-writer"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "writer" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the writer loop until ctx is canceled or the queue closes.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)

	snapChan := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case snap, ok := <-snapChan:
			if !ok {
				return
			}
			if err := w.write(ctx, snap); err != nil {
				w.logger.Error(ctx, "error writing snapshot", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the writer.
func (w *Writer) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// write persists a single snapshot.
func (w *Writer) write(ctx context.Context, snap Snapshot) error {
	start := time.Now()
	err := w.store.Put(ctx, snap)
	metrics.RecordSnapshotWriteLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordSnapshotWriteError()
		metrics.RecordErrorByComponent("snapshot_writer", "store_error")
		metrics.RecordErrorByType("store_error", "high")
		w.logger.Error(ctx, "snapshot write failed",
			logger.String("albumID", snap.AlbumID),
			logger.Error(err),
		)
		return fmt.Errorf("write snapshot %s: %w", snap.AlbumID, err)
	}

	metrics.RecordSnapshotWrite()
	return nil
}

// Pool manages multiple writers draining the same queue.
type Pool struct {
	writers []*Writer
	source  Source
	store   Store

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a writer pool. A writerCount below one falls back to a
// CPU-scaled default.
func NewPool(writerCount int, source Source, store Store) *Pool {
	if writerCount < 1 {
		writerCount = runtime.NumCPU() * defaultWriterMultiplier
	}

	p := &Pool{
		writers:  make([]*Writer, writerCount),
		source:   source,
		store:    store,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("snapshot-pool"),
	}

	for i := 0; i < writerCount; i++ {
		p.writers[i] = NewWriter(
			source,
			store,
			WithName("writer-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateSnapshotWriterCount(writerCount)

	return p
}

// Start starts all writers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.writers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for all writers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing snapshot queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.writers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "writer shutdown timed out", logger.Int("writer_id", i))
		}
	}

	metrics.UpdateSnapshotWriterCount(0)

	return nil
}
