package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tessellate-ai/extract-api/internal/domain"
	"github.com/tessellate-ai/extract-api/internal/store"
)

// Normalizer converts raw model output into the canonical extraction
// result, or reports an unrecoverable validation failure.
type Normalizer interface {
	Normalize(raw map[string]any) (*domain.ExtractedInfo, error)
}

// Worker executes one task end-to-end: it transitions the task to
// PROCESSING, drives the model invocation under the retry policy, and
// persists the terminal state. Every transition is written to durable
// storage synchronously before the worker returns, so the scheduler
// only frees the concurrency slot once the outcome is recorded.
type Worker struct {
	store      store.TaskStore
	invoker    Invoker
	normalizer Normalizer
	policy     RetryPolicy
	logger     *slog.Logger
}

// NewWorker creates a Worker. If logger is nil the default logger is
// used.
func NewWorker(
	taskStore store.TaskStore,
	invoker Invoker,
	normalizer Normalizer,
	policy RetryPolicy,
	logger *slog.Logger,
) (*Worker, error) {
	if taskStore == nil {
		return nil, errors.New("task store cannot be nil")
	}
	if invoker == nil {
		return nil, errors.New("invoker cannot be nil")
	}
	if normalizer == nil {
		return nil, errors.New("normalizer cannot be nil")
	}
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		store:      taskStore,
		invoker:    invoker,
		normalizer: normalizer,
		policy:     policy,
		logger:     logger.With(slog.String("component", "extract_worker")),
	}, nil
}

// Run processes the task with the given ID until it reaches a terminal
// state. It returns an error only for infrastructure failures (storage
// unavailable, shutdown mid-flight); business failures are recorded on
// the task itself.
func (w *Worker) Run(ctx context.Context, taskID uuid.UUID) error {
	log := w.logger.With(slog.String("task_id", taskID.String()))

	task, err := w.store.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}

	if task.Status.IsTerminal() {
		// Already settled, e.g. a duplicate queue entry after recovery.
		log.Warn("skipping task already in terminal state", slog.String("status", string(task.Status)))
		return nil
	}

	switch task.Status {
	case domain.TaskStatusPending:
		if err := task.MarkProcessing(time.Now()); err != nil {
			return fmt.Errorf("transition to processing: %w", err)
		}
		claimed, err := w.store.Claim(ctx, task.ID, *task.StartedAt)
		if err != nil {
			return fmt.Errorf("claim task: %w", err)
		}
		if !claimed {
			// Duplicate queue entry lost the claim race; the winning
			// worker owns the task.
			log.Warn("task already claimed, skipping duplicate queue entry")
			return nil
		}
	case domain.TaskStatusProcessing:
		// Recovered after a restart that interrupted the run. The status
		// machine is forward-only, so the task resumes from PROCESSING
		// with its original started_at.
		log.Info("resuming task recovered in processing state")
	}

	log.Info("task processing started", slog.Int("page_count", task.PageCount))

	raw, attempts, invokeErr := w.invokeWithRetry(ctx, log, task)
	if invokeErr != nil {
		if ctx.Err() != nil {
			// Shutdown mid-flight: leave the task at its last durably
			// recorded state for startup recovery.
			return fmt.Errorf("invocation aborted: %w", ctx.Err())
		}
		return w.fail(ctx, log, task, domain.TaskError{
			Kind:     domain.ErrorKindModel,
			Message:  invokeErr.Error(),
			Attempts: attempts,
		})
	}

	info, err := w.normalizer.Normalize(raw)
	if err != nil {
		log.Warn("normalization rejected model output", slog.String("error", err.Error()))
		return w.fail(ctx, log, task, domain.TaskError{
			Kind:     domain.ErrorKindValidation,
			Message:  err.Error(),
			Attempts: attempts,
		})
	}

	if err := task.MarkSucceeded(info, time.Now()); err != nil {
		return fmt.Errorf("transition to succeeded: %w", err)
	}
	if err := w.store.UpdateStatus(ctx, task.ID, domain.TaskStatusSucceeded, store.UpdateFields{
		CompletedAt:   task.CompletedAt,
		ExtractedInfo: info,
		AttemptCount:  &attempts,
	}); err != nil {
		return fmt.Errorf("persist succeeded transition: %w", err)
	}

	log.Info("task succeeded",
		slog.Int("attempts", attempts),
		slog.String("industry", info.Industry))
	return nil
}

// invokeWithRetry drives the model call under the retry policy. It
// returns the raw result, the number of attempts made, and the last
// error if all attempts failed or a non-retryable error occurred.
func (w *Worker) invokeWithRetry(
	ctx context.Context,
	log *slog.Logger,
	task *domain.Task,
) (RawResult, int, error) {
	var lastErr error

	for attempt := 1; attempt <= w.policy.MaxAttempts; attempt++ {
		log.Info("invoking model",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", w.policy.MaxAttempts))

		raw, err := w.invoker.Invoke(ctx, task.SourceRef, task.PageCount)
		if err == nil {
			return raw, attempt, nil
		}
		lastErr = err

		log.Warn("model invocation failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if !Retryable(err) {
			log.Warn("non-retryable model error, stopping attempts")
			return nil, attempt, err
		}

		if attempt == w.policy.MaxAttempts {
			break
		}

		delay := w.policy.Delay(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, attempt, fmt.Errorf("%w: %v", ErrTransientFailure, ctx.Err())
		}
	}

	return nil, w.policy.MaxAttempts, fmt.Errorf("retries exhausted after %d attempts: %w", w.policy.MaxAttempts, lastErr)
}

// fail records the terminal FAILED state.
func (w *Worker) fail(ctx context.Context, log *slog.Logger, task *domain.Task, taskErr domain.TaskError) error {
	if err := task.MarkFailed(taskErr, time.Now()); err != nil {
		return fmt.Errorf("transition to failed: %w", err)
	}
	if err := w.store.UpdateStatus(ctx, task.ID, domain.TaskStatusFailed, store.UpdateFields{
		CompletedAt:  task.CompletedAt,
		TaskError:    &taskErr,
		AttemptCount: &taskErr.Attempts,
	}); err != nil {
		return fmt.Errorf("persist failed transition: %w", err)
	}

	log.Info("task failed",
		slog.String("error_kind", taskErr.Kind),
		slog.Int("attempts", taskErr.Attempts))
	return nil
}
