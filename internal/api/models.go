package api

import (
	"time"

	"github.com/tessellate-ai/extract-api/internal/domain"
	"github.com/tessellate-ai/extract-api/internal/service"
)

// SubmitTaskRequest represents the request body for submitting an
// extraction task. The document itself is uploaded out of band; the
// request declares its properties for admission.
type SubmitTaskRequest struct {
	ProjectID      string `json:"project_id" validate:"required"`
	SourceFilename string `json:"source_filename" validate:"required"`
	ContentKind    string `json:"content_kind" validate:"required"`
	ByteSize       int64  `json:"byte_size" validate:"required,gt=0"`
	PageCount      int    `json:"page_count" validate:"required,gt=0"`
}

// BatchSubmitRequest represents the request body for submitting several
// extraction tasks in one call.
type BatchSubmitRequest struct {
	Items []SubmitTaskRequest `json:"items"`
}

// BatchFailure reports one batch item that was not admitted.
type BatchFailure struct {
	SourceFilename string `json:"source_filename"`
	Error          string `json:"error"`
}

// BatchSubmitResponse lists the tasks created for a batch alongside the
// items that failed admission.
type BatchSubmitResponse struct {
	Submitted      []TaskResponse `json:"submitted"`
	Failed         []BatchFailure `json:"failed"`
	TotalSubmitted int            `json:"total_submitted"`
}

// TaskResponse represents the response data for a single task.
type TaskResponse struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	ProjectID   string     `json:"project_id"`
	Status      string     `json:"status"`
	PageCount   int        `json:"page_count"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ExtractedInfo *domain.ExtractedInfo `json:"extracted_info,omitempty"`
	Error         *domain.TaskError     `json:"error,omitempty"`
}

// TaskListResponse represents one page of a task listing.
type TaskListResponse struct {
	Items      []TaskResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// taskToDTOResponse converts a domain.Task to a TaskResponse.
func taskToDTOResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:            task.ID.String(),
		OwnerID:       task.OwnerID,
		ProjectID:     task.ProjectID,
		Status:        string(task.Status),
		PageCount:     task.PageCount,
		SubmittedAt:   task.SubmittedAt,
		StartedAt:     task.StartedAt,
		CompletedAt:   task.CompletedAt,
		ExtractedInfo: task.ExtractedInfo,
		Error:         task.Error,
	}
}

// pageToDTOResponse converts a service.TaskPage to a TaskListResponse.
func pageToDTOResponse(page *service.TaskPage) TaskListResponse {
	items := make([]TaskResponse, 0, len(page.Items))
	for _, task := range page.Items {
		items = append(items, taskToDTOResponse(task))
	}
	return TaskListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}
