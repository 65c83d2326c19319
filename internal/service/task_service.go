package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tessellate-ai/extract-api/internal/admission"
	"github.com/tessellate-ai/extract-api/internal/domain"
	"github.com/tessellate-ai/extract-api/internal/platform/logger"
	"github.com/tessellate-ai/extract-api/internal/scheduler"
	"github.com/tessellate-ai/extract-api/internal/store"
)

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// TaskQueue is the slice of the scheduler the service layer needs:
// non-blocking admission into the pending queue and a state snapshot.
type TaskQueue interface {
	Enqueue(ctx context.Context, id uuid.UUID) error
	Snapshot() scheduler.Snapshot
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Items      []*domain.Task
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// TaskService provides task submission and query operations.
type TaskService interface {
	// SubmitTask admits a submission, durably creates a PENDING task,
	// and enqueues it for processing. Admission rejections are returned
	// as *admission.Error with no side effects.
	SubmitTask(ctx context.Context, sub admission.Submission) (*domain.Task, error)

	// GetTask retrieves a task by ID on behalf of requesterID.
	// Returns store.ErrTaskNotFound if absent and ErrNotOwned when the
	// task belongs to someone else.
	GetTask(ctx context.Context, taskID uuid.UUID, requesterID string) (*domain.Task, error)

	// ListTasks returns a filtered, paginated task listing sorted by
	// submission time, newest first.
	ListTasks(ctx context.Context, filter store.Filter, page store.Page) (*TaskPage, error)

	// QueueStatus reports the current scheduler state.
	QueueStatus(ctx context.Context) scheduler.Snapshot
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	validator *admission.Validator
	taskStore store.TaskStore
	queue     TaskQueue
	logger    *slog.Logger
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	validator *admission.Validator,
	taskStore store.TaskStore,
	queue TaskQueue,
	log *slog.Logger,
) (TaskService, error) {
	if validator == nil {
		return nil, fmt.Errorf("admission validator cannot be nil")
	}
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if queue == nil {
		return nil, fmt.Errorf("task queue cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &taskServiceImpl{
		validator: validator,
		taskStore: taskStore,
		queue:     queue,
		logger:    log.With(slog.String("component", "task_service")),
	}, nil
}

// SubmitTask implements TaskService.SubmitTask.
func (s *taskServiceImpl) SubmitTask(ctx context.Context, sub admission.Submission) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	desc, err := s.validator.Validate(sub)
	if err != nil {
		log.Info("submission rejected at admission",
			slog.String("owner_id", sub.Metadata.OwnerID),
			slog.String("error", err.Error()))
		return nil, err
	}

	// The document is stored under a key unique per upload. The task
	// carries the key as an opaque reference and never dereferences it.
	sourceRef := fmt.Sprintf("%s/%s/%s", desc.ProjectID, uuid.NewString(), desc.SourceFilename)

	task, err := domain.NewTask(desc.OwnerID, desc.ProjectID, sourceRef, desc.PageCount)
	if err != nil {
		return nil, NewTaskServiceError("submit", "invalid task", err)
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		return nil, NewTaskServiceError("submit", "failed to create task record", err)
	}

	if err := s.queue.Enqueue(ctx, task.ID); err != nil {
		// The record is already durable. On queue pressure the caller
		// gets an error now, and startup recovery requeues the task on
		// the next run.
		log.Error("failed to enqueue task after creation",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("submit", "failed to enqueue task", err)
	}

	log.Info("task submitted",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID),
		slog.Int("page_count", task.PageCount))
	return task, nil
}

// GetTask implements TaskService.GetTask.
func (s *taskServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID, requesterID string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.OwnerID != requesterID {
		log.Warn("task access denied",
			slog.String("task_id", taskID.String()),
			slog.String("requester_id", requesterID))
		return nil, ErrNotOwned
	}

	return task, nil
}

// ListTasks implements TaskService.ListTasks.
func (s *taskServiceImpl) ListTasks(ctx context.Context, filter store.Filter, page store.Page) (*TaskPage, error) {
	page = page.Normalize()

	items, total, err := s.taskStore.List(ctx, filter, page)
	if err != nil {
		return nil, NewTaskServiceError("list", "failed to list tasks", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + page.Size - 1) / page.Size
	}

	return &TaskPage{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages,
	}, nil
}

// QueueStatus implements TaskService.QueueStatus.
func (s *taskServiceImpl) QueueStatus(_ context.Context) scheduler.Snapshot {
	return s.queue.Snapshot()
}
