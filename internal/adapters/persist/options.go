package persist

import "github.com/okian/keepsake/pkg/logger"

// QueueOption applies a configuration option to the InMemoryQueue.
type QueueOption func(*InMemoryQueue)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) QueueOption {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithBufferSize sets the buffer size for the snapshot channel.
func WithBufferSize(size int) QueueOption {
	return func(q *InMemoryQueue) {
		if size > 0 {
			q.bufferSize = size
		}
	}
}

// WriterOption applies a configuration option to the Writer.
type WriterOption func(*Writer)

// WithName sets the writer name for identification and logging.
func WithName(name string) WriterOption {
	return func(w *Writer) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(log logger.Logger) WriterOption {
	return func(w *Writer) {
		if log != nil {
			w.logger = log
		}
	}
}
