package scheduler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemoryQueue(10, testLogger())
	ctx := context.Background()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, q.Enqueue(ctx, id))
	}

	assert.Equal(t, 3, q.Len(ctx))

	for _, want := range ids {
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got, "insertion order preserved")
	}
	assert.Equal(t, 0, q.Len(ctx))
}

func TestMemoryQueueFull(t *testing.T) {
	q := NewMemoryQueue(2, testLogger())
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, uuid.New()))
	require.NoError(t, q.Enqueue(ctx, uuid.New()))

	err := q.Enqueue(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestMemoryQueueEnqueueNeverBlocks(t *testing.T) {
	q := NewMemoryQueue(1, testLogger())
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, uuid.New()))

	done := make(chan struct{})
	go func() {
		// Full queue: must return an error immediately, not block.
		_ = q.Enqueue(ctx, uuid.New())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}

func TestMemoryQueueClosed(t *testing.T) {
	q := NewMemoryQueue(2, testLogger())
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, q.Enqueue(ctx, id))
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Enqueue(ctx, uuid.New()), ErrQueueClosed)

	// Buffered entries drain before the closed error surfaces.
	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = q.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryQueueDequeueHonorsContext(t *testing.T) {
	q := NewMemoryQueue(2, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
