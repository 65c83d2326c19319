package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	pendingKey = "extract:pending"

	// blpopTimeout bounds each blocking pop so Dequeue can observe
	// context cancellation between polls.
	blpopTimeout = time.Second
)

// RedisQueue is a Redis-list-backed Queue, for deployments where the
// pending queue must survive a process restart on its own (the default
// MemoryQueue relies on startup recovery from the task store instead).
type RedisQueue struct {
	client  *redis.Client
	maxSize int64
	logger  *slog.Logger
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue connects to Redis and returns a RedisQueue with the
// given capacity.
func NewRedisQueue(addr, password string, db int, maxSize int, logger *slog.Logger) (*RedisQueue, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisQueue{
		client:  client,
		maxSize: int64(maxSize),
		logger:  logger.With(slog.String("component", "redis_queue")),
	}, nil
}

// Enqueue appends the task ID to the pending list.
func (q *RedisQueue) Enqueue(ctx context.Context, id uuid.UUID) error {
	if q.maxSize > 0 {
		depth, err := q.client.LLen(ctx, pendingKey).Result()
		if err != nil {
			return fmt.Errorf("check queue depth: %w", err)
		}
		if depth >= q.maxSize {
			return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, q.maxSize)
		}
	}

	if err := q.client.RPush(ctx, pendingKey, id.String()).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}

	q.logger.Debug("task enqueued", slog.String("task_id", id.String()))
	return nil
}

// Dequeue pops the oldest task ID, blocking until one is available or
// the context is cancelled.
func (q *RedisQueue) Dequeue(ctx context.Context) (uuid.UUID, error) {
	for {
		if err := ctx.Err(); err != nil {
			return uuid.Nil, err
		}

		result, err := q.client.BLPop(ctx, blpopTimeout, pendingKey).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return uuid.Nil, ctx.Err()
			}
			return uuid.Nil, fmt.Errorf("dequeue task: %w", err)
		}

		id, err := uuid.Parse(result[1])
		if err != nil {
			q.logger.Warn("discarding malformed queue entry", slog.String("value", result[1]))
			continue
		}
		return id, nil
	}
}

// Len reports the current pending list length.
func (q *RedisQueue) Len(ctx context.Context) int {
	depth, err := q.client.LLen(ctx, pendingKey).Result()
	if err != nil {
		q.logger.Warn("failed to read queue depth", slog.String("error", err.Error()))
		return 0
	}
	return int(depth)
}

// Close releases the Redis connection. Queued IDs remain in Redis.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
