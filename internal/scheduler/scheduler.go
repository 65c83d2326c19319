package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tessellate-ai/extract-api/internal/domain"
	"github.com/tessellate-ai/extract-api/internal/store"
)

// Scheduling defaults, matching the upstream service.
const (
	DefaultMaxConcurrent = 5
	DefaultQueueSize     = 100
)

// TaskExecutor runs one task to a terminal state. extract.Worker is
// the production implementation.
type TaskExecutor interface {
	Run(ctx context.Context, taskID uuid.UUID) error
}

// Config holds scheduler configuration.
type Config struct {
	// MaxConcurrent bounds the number of tasks in PROCESSING at once.
	MaxConcurrent int

	// QueueSize is the pending queue capacity.
	QueueSize int
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: DefaultMaxConcurrent,
		QueueSize:     DefaultQueueSize,
	}
}

// Snapshot is a point-in-time, read-only view of the scheduler state.
type Snapshot struct {
	QueueSize     int         `json:"queue_size"`
	Active        int         `json:"active_tasks"`
	Pending       int         `json:"pending_tasks"`
	MaxConcurrent int         `json:"max_concurrent"`
	ActiveIDs     []uuid.UUID `json:"active_task_ids"`
}

// Scheduler owns the pending queue and the worker pool. Each dequeued
// task is owned by exactly one worker for its entire PROCESSING
// lifetime; the worker persists the terminal transition before its
// slot frees.
type Scheduler struct {
	queue    Queue
	executor TaskExecutor
	store    store.TaskStore
	config   Config
	logger   *slog.Logger

	// loopCtx only governs the dequeue wait; a task already handed to
	// the executor runs to completion during shutdown.
	loopCtx    context.Context
	cancelLoop context.CancelFunc
	wg         sync.WaitGroup

	mu      sync.RWMutex
	active  map[uuid.UUID]struct{}
	started bool
}

// New creates a Scheduler. Invalid config values fall back to defaults.
func New(queue Queue, executor TaskExecutor, taskStore store.TaskStore, config Config, logger *slog.Logger) (*Scheduler, error) {
	if queue == nil {
		return nil, errors.New("queue cannot be nil")
	}
	if executor == nil {
		return nil, errors.New("executor cannot be nil")
	}
	if taskStore == nil {
		return nil, errors.New("task store cannot be nil")
	}
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}
	if config.QueueSize < 1 {
		config.QueueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		queue:      queue,
		executor:   executor,
		store:      taskStore,
		config:     config,
		logger:     logger.With(slog.String("component", "scheduler")),
		loopCtx:    loopCtx,
		cancelLoop: cancel,
		active:     make(map[uuid.UUID]struct{}),
	}, nil
}

// Enqueue admits a task ID into the pending queue. It never blocks on
// worker availability; the admission path returns immediately.
func (s *Scheduler) Enqueue(ctx context.Context, id uuid.UUID) error {
	return s.queue.Enqueue(ctx, id)
}

// Start performs startup recovery and launches the worker pool.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	s.started = true
	s.mu.Unlock()

	if err := s.Recover(ctx); err != nil {
		return fmt.Errorf("recover unfinished tasks: %w", err)
	}

	for i := 0; i < s.config.MaxConcurrent; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.logger.Info("scheduler started",
		slog.Int("max_concurrent", s.config.MaxConcurrent),
		slog.Int("queue_size", s.config.QueueSize))
	return nil
}

// Stop closes the queue to new work, cancels idle dequeue waits, and
// drains in-flight workers before returning.
func (s *Scheduler) Stop() {
	if err := s.queue.Close(); err != nil {
		s.logger.Warn("failed to close pending queue", slog.String("error", err.Error()))
	}
	s.cancelLoop()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Recover re-enqueues tasks left unfinished by a previous run.
// PROCESSING tasks resume first (they are oldest), then PENDING ones;
// both lists arrive oldest-first so admission order is preserved.
func (s *Scheduler) Recover(ctx context.Context) error {
	processing, err := s.store.ListByStatus(ctx, domain.TaskStatusProcessing)
	if err != nil {
		return fmt.Errorf("list processing tasks: %w", err)
	}

	pending, err := s.store.ListByStatus(ctx, domain.TaskStatusPending)
	if err != nil {
		return fmt.Errorf("list pending tasks: %w", err)
	}

	if len(processing) == 0 && len(pending) == 0 {
		return nil
	}

	s.logger.Info("recovering unfinished tasks",
		slog.Int("processing_count", len(processing)),
		slog.Int("pending_count", len(pending)))

	for _, task := range append(processing, pending...) {
		if err := s.queue.Enqueue(ctx, task.ID); err != nil {
			// Queue full during recovery: the record stays durable and
			// a later restart picks it up.
			s.logger.Error("failed to requeue task",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// Snapshot returns the current queue and worker state. It is safe to
// call concurrently with enqueue/dequeue and does not block running
// work.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.RLock()
	activeIDs := make([]uuid.UUID, 0, len(s.active))
	for id := range s.active {
		activeIDs = append(activeIDs, id)
	}
	s.mu.RUnlock()

	depth := s.queue.Len(context.Background())
	return Snapshot{
		QueueSize:     depth,
		Active:        len(activeIDs),
		Pending:       depth,
		MaxConcurrent: s.config.MaxConcurrent,
		ActiveIDs:     activeIDs,
	}
}

// worker pulls task IDs from the queue until the queue closes or the
// scheduler stops.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	log := s.logger.With(slog.Int("worker_id", id))
	log.Debug("worker started")

	for {
		taskID, err := s.queue.Dequeue(s.loopCtx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) {
				log.Debug("worker stopping")
				return
			}
			log.Error("dequeue failed", slog.String("error", err.Error()))
			continue
		}

		if !s.tryTrack(taskID) {
			// The same ID was queued twice, e.g. a durable queue entry
			// plus a recovery re-enqueue. One owner per task.
			log.Warn("task already in flight, dropping duplicate queue entry",
				slog.String("task_id", taskID.String()))
			continue
		}
		// The executor persists every transition before returning, so
		// the slot frees only once the outcome is durably recorded.
		if err := s.executor.Run(context.Background(), taskID); err != nil {
			log.Error("task execution failed",
				slog.String("task_id", taskID.String()),
				slog.String("error", err.Error()))
		}
		s.untrack(taskID)
	}
}

// tryTrack registers the task as active. It refuses IDs that are
// already in flight, which makes duplicate queue entries harmless.
func (s *Scheduler) tryTrack(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.active[id]; running {
		return false
	}
	s.active[id] = struct{}{}
	return true
}

func (s *Scheduler) untrack(id uuid.UUID) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}
