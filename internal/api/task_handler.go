package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tessellate-ai/extract-api/internal/admission"
	"github.com/tessellate-ai/extract-api/internal/api/shared"
	"github.com/tessellate-ai/extract-api/internal/domain"
	"github.com/tessellate-ai/extract-api/internal/service"
	"github.com/tessellate-ai/extract-api/internal/store"
)

// maxBatchSize bounds the number of items in one batch submission.
const maxBatchSize = 10

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// SubmitTask handles POST /api/tasks requests. Processing happens
// asynchronously, so a successful submission returns 202 Accepted with
// the PENDING task record.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req SubmitTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := h.taskService.SubmitTask(r.Context(), submissionFromRequest(userID, req))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, taskToDTOResponse(task))
}

// SubmitTaskBatch handles POST /api/tasks/batch requests. Each item is
// admitted independently; a rejected item is reported in the response
// and does not abort the rest of the batch.
func (h *TaskHandler) SubmitTaskBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req BatchSubmitRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if len(req.Items) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Batch must contain at least one item")
		return
	}
	if len(req.Items) > maxBatchSize {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			fmt.Sprintf("Batch size %d exceeds limit %d", len(req.Items), maxBatchSize))
		return
	}

	resp := BatchSubmitResponse{
		Submitted: make([]TaskResponse, 0, len(req.Items)),
		Failed:    []BatchFailure{},
	}
	for _, item := range req.Items {
		if err := shared.ValidateRequest(item); err != nil {
			resp.Failed = append(resp.Failed, BatchFailure{
				SourceFilename: item.SourceFilename,
				Error:          "Validation error: " + err.Error(),
			})
			continue
		}

		task, err := h.taskService.SubmitTask(r.Context(), submissionFromRequest(userID, item))
		if err != nil {
			resp.Failed = append(resp.Failed, BatchFailure{
				SourceFilename: item.SourceFilename,
				Error:          GetSafeErrorMessage(err),
			})
			continue
		}
		resp.Submitted = append(resp.Submitted, taskToDTOResponse(task))
	}
	resp.TotalSubmitted = len(resp.Submitted)

	shared.RespondWithJSON(w, r, http.StatusAccepted, resp)
}

// submissionFromRequest builds the admission submission for one request
// item on behalf of the authenticated user.
func submissionFromRequest(userID string, req SubmitTaskRequest) admission.Submission {
	return admission.Submission{
		ContentKind: req.ContentKind,
		ByteSize:    req.ByteSize,
		PageCount:   req.PageCount,
		Metadata: admission.Metadata{
			OwnerID:        userID,
			ProjectID:      req.ProjectID,
			SourceFilename: req.SourceFilename,
		},
	}
}

// GetTask handles GET /api/tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(r.Context(), taskID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToDTOResponse(task))
}

// ListTasks handles GET /api/tasks requests. Supported query
// parameters: status, industry, page, page_size.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.GetUserID(r.Context()); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var filter store.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.TaskStatus(raw)
		if !domain.IsValidTaskStatus(status) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("industry"); raw != "" {
		industry := raw
		filter.Industry = &industry
	}

	page, err := parsePage(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	result, err := h.taskService.ListTasks(r.Context(), filter, page)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pageToDTOResponse(result))
}

// QueueStatus handles GET /api/queue/status requests.
func (h *TaskHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.GetUserID(r.Context()); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.taskService.QueueStatus(r.Context()))
}

// parsePage reads page and page_size query parameters. Absent values
// are zero; the store layer applies defaults and ceilings.
func parsePage(r *http.Request) (store.Page, error) {
	var page store.Page

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, errInvalidPagination
		}
		page.Number = n
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, errInvalidPagination
		}
		page.Size = n
	}
	return page, nil
}
