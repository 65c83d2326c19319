package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellate-ai/extract-api/internal/domain"
	"github.com/tessellate-ai/extract-api/internal/extract"
)

func newTestRedisQueue(t *testing.T, maxSize int) *RedisQueue {
	t.Helper()

	mr := miniredis.RunT(t)
	q, err := NewRedisQueue(mr.Addr(), "", 0, maxSize, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestRedisQueueFIFO(t *testing.T) {
	q := newTestRedisQueue(t, 100)
	ctx := context.Background()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, q.Enqueue(ctx, id))
	}

	assert.Equal(t, 3, q.Len(ctx))

	for _, want := range ids {
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 0, q.Len(ctx))
}

func TestRedisQueueFull(t *testing.T) {
	q := newTestRedisQueue(t, 2)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, uuid.New()))
	require.NoError(t, q.Enqueue(ctx, uuid.New()))

	err := q.Enqueue(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestRedisQueueDequeueHonorsContext(t *testing.T) {
	q := newTestRedisQueue(t, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := q.Dequeue(ctx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRedisQueueConnectionFailure(t *testing.T) {
	_, err := NewRedisQueue("127.0.0.1:1", "", 0, 10, testLogger())
	assert.Error(t, err)
}

// A redis-backed queue keeps its entries across a restart, so startup
// recovery produces a second entry for the same task. The scheduler
// must still run the task exactly once.
func TestRedisQueueRecoveryRunsTaskOnce(t *testing.T) {
	q := newTestRedisQueue(t, 10)
	ctx := context.Background()

	taskStore := extract.NewMockTaskStore()
	task, err := domain.NewTask("user-1", "project-1", "ref", 1)
	require.NoError(t, err)
	require.NoError(t, taskStore.Create(ctx, task))

	// Entry retained from before the restart.
	require.NoError(t, q.Enqueue(ctx, task.ID))

	executor := newBlockingExecutor()
	s, err := New(q, executor, taskStore, Config{MaxConcurrent: 5, QueueSize: 10}, testLogger())
	require.NoError(t, err)

	// Start runs Recover, which re-enqueues the PENDING task.
	require.NoError(t, s.Start(ctx))

	waitForStarts(t, executor, 1)
	require.Eventually(t, func() bool { return q.Len(ctx) == 0 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, executor.Peak(), "single concurrent owner after recovery")

	close(executor.release)
	s.Stop()

	select {
	case extra := <-executor.started:
		t.Fatalf("task %s executed a second time", extra)
	default:
	}
}
