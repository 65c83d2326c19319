package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of an extraction task.
// The values are upper-case to match the task_status column of the
// extraction_tasks table.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusSucceeded  TaskStatus = "SUCCEEDED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// Error kinds recorded on a failed task.
const (
	// ErrorKindModel marks a task whose model invocation failed, either
	// because the retry budget was exhausted or because the model
	// returned a non-retryable error.
	ErrorKindModel = "model-error"

	// ErrorKindValidation marks a task whose raw model output could not
	// be normalized into a valid ExtractedInfo.
	ErrorKindValidation = "validation-error"
)

// TaskError captures the terminal failure detail recorded on a task.
type TaskError struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Attempts int    `json:"attempts"`
}

// Task represents one document-extraction request and its lifecycle
// record. A task is created at admission in PENDING state and mutated
// exclusively by the worker that owns it during processing.
type Task struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ProjectID string    `json:"project_id"`

	// SourceRef is an opaque reference to the stored input document.
	// The orchestrator never interprets or dereferences it.
	SourceRef string `json:"source_ref"`

	Status    TaskStatus `json:"status"`
	PageCount int        `json:"page_count"`

	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ExtractedInfo is present iff Status == SUCCEEDED.
	ExtractedInfo *ExtractedInfo `json:"extracted_info,omitempty"`

	// Error is present iff Status == FAILED.
	Error *TaskError `json:"error,omitempty"`

	AttemptCount int `json:"-"`
}

// NewTask creates a new Task in PENDING state with a fresh UUID and the
// submission timestamp set to now. Returns an error if validation fails.
func NewTask(ownerID, projectID, sourceRef string, pageCount int) (*Task, error) {
	t := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ProjectID:   projectID,
		SourceRef:   sourceRef,
		Status:      TaskStatusPending,
		PageCount:   pageCount,
		SubmittedAt: time.Now().UTC(),
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.OwnerID == "" {
		return ErrEmptyOwnerID
	}

	if t.SourceRef == "" {
		return ErrEmptySourceRef
	}

	if !IsValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	return nil
}

// IsTerminal reports whether the status admits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed
}

// IsValidTaskStatus checks if the given status is a defined TaskStatus.
func IsValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusSucceeded, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// canTransition encodes the forward-only state machine:
// PENDING -> PROCESSING -> SUCCEEDED | FAILED.
func canTransition(from, to TaskStatus) bool {
	switch from {
	case TaskStatusPending:
		return to == TaskStatusProcessing
	case TaskStatusProcessing:
		return to == TaskStatusSucceeded || to == TaskStatusFailed
	default:
		return false
	}
}

// MarkProcessing transitions the task from PENDING to PROCESSING and
// stamps StartedAt exactly once.
func (t *Task) MarkProcessing(now time.Time) error {
	if !canTransition(t.Status, TaskStatusProcessing) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskStatusProcessing)
	}

	t.Status = TaskStatusProcessing
	if t.StartedAt == nil {
		started := now.UTC()
		t.StartedAt = &started
	}
	return nil
}

// MarkSucceeded transitions the task to the terminal SUCCEEDED state,
// attaching the normalized extraction result and stamping CompletedAt.
func (t *Task) MarkSucceeded(info *ExtractedInfo, now time.Time) error {
	if !canTransition(t.Status, TaskStatusSucceeded) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskStatusSucceeded)
	}
	if info == nil {
		return fmt.Errorf("%w: succeeded task requires extracted info", ErrValidation)
	}

	t.Status = TaskStatusSucceeded
	t.ExtractedInfo = info
	t.Error = nil
	completed := now.UTC()
	t.CompletedAt = &completed
	return nil
}

// MarkFailed transitions the task to the terminal FAILED state,
// recording the failure detail and stamping CompletedAt.
func (t *Task) MarkFailed(taskErr TaskError, now time.Time) error {
	if !canTransition(t.Status, TaskStatusFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskStatusFailed)
	}

	t.Status = TaskStatusFailed
	t.Error = &taskErr
	t.ExtractedInfo = nil
	t.AttemptCount = taskErr.Attempts
	completed := now.UTC()
	t.CompletedAt = &completed
	return nil
}
