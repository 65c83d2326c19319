package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tessellate-ai/extract-api/internal/domain"
)

// Pagination defaults and ceiling for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter narrows a List call. Nil fields match everything; when both
// are set they are combined conjunctively.
type Filter struct {
	Status   *domain.TaskStatus
	Industry *string
}

// Page selects a page of results. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page parameters into the supported range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// UpdateFields carries the optional fields written alongside a status
// transition. Nil fields are left untouched by the update.
type UpdateFields struct {
	StartedAt     *time.Time
	CompletedAt   *time.Time
	ExtractedInfo *domain.ExtractedInfo
	TaskError     *domain.TaskError
	AttemptCount  *int
}

// TaskStore is the durable storage contract for extraction tasks.
//
// UpdateStatus must be atomic with respect to concurrent reads: a
// reader observes either the record before or after the transition,
// never a partial write.
type TaskStore interface {
	// Create persists a new task record.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Claim atomically transitions a task from PENDING to PROCESSING,
	// stamping started_at. Returns false without error when the task is
	// no longer PENDING, so a worker holding a duplicate queue entry
	// can detect that another owner already claimed the task.
	Claim(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error)

	// UpdateStatus transitions a task to the given status, writing the
	// provided fields in the same statement.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus, fields UpdateFields) error

	// List returns a filtered, sorted (submitted_at descending) page of
	// tasks along with the total number of matching records.
	List(ctx context.Context, filter Filter, page Page) ([]*domain.Task, int, error)

	// ListByStatus returns all tasks currently in the given status,
	// oldest submission first. Used at startup to recover tasks
	// interrupted by a shutdown while preserving admission order.
	ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)
}
