package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Common errors returned by pending queues.
var (
	ErrQueueClosed = errors.New("pending queue is closed")
	ErrQueueFull   = errors.New("pending queue is full")
)

// Queue is the FIFO structure holding admitted task IDs until a worker
// slot frees. Enqueue is O(1) and never blocks the caller; Dequeue
// blocks until an ID is available, the queue closes, or the context is
// cancelled. Insertion order is preserved; there is no priority
// reordering.
type Queue interface {
	Enqueue(ctx context.Context, id uuid.UUID) error
	Dequeue(ctx context.Context) (uuid.UUID, error)

	// Len reports the current queue depth. Safe to call concurrently
	// with Enqueue/Dequeue; used by the status snapshot.
	Len(ctx context.Context) int

	Close() error
}

// MemoryQueue is the default in-process Queue backed by a buffered
// channel.
type MemoryQueue struct {
	ids    chan uuid.UUID
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a MemoryQueue with the given capacity.
func NewMemoryQueue(size int, logger *slog.Logger) *MemoryQueue {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryQueue{
		ids:    make(chan uuid.UUID, size),
		logger: logger.With(slog.String("component", "memory_queue")),
	}
}

// Enqueue adds a task ID to the queue without blocking.
func (q *MemoryQueue) Enqueue(ctx context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ids <- id:
		q.logger.Debug("task enqueued",
			slog.String("task_id", id.String()),
			slog.Int("queue_len", len(q.ids)),
			slog.Int("queue_cap", cap(q.ids)))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(q.ids))
	}
}

// Dequeue removes and returns the oldest task ID.
func (q *MemoryQueue) Dequeue(ctx context.Context) (uuid.UUID, error) {
	select {
	case id, ok := <-q.ids:
		if !ok {
			return uuid.Nil, ErrQueueClosed
		}
		return id, nil
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}
}

// Len reports the current queue depth.
func (q *MemoryQueue) Len(ctx context.Context) int {
	return len(q.ids)
}

// Close closes the queue, preventing further submission. Dequeue keeps
// draining buffered IDs until empty.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ids)
		q.logger.Info("pending queue closed")
	}
	return nil
}
