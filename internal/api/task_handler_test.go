package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellate-ai/extract-api/internal/admission"
	"github.com/tessellate-ai/extract-api/internal/api/shared"
	"github.com/tessellate-ai/extract-api/internal/domain"
	"github.com/tessellate-ai/extract-api/internal/extract"
	"github.com/tessellate-ai/extract-api/internal/scheduler"
	"github.com/tessellate-ai/extract-api/internal/service"
)

// stubQueue implements service.TaskQueue for handler tests.
type stubQueue struct {
	enqueueErr error
	snapshot   scheduler.Snapshot
}

func (q *stubQueue) Enqueue(ctx context.Context, id uuid.UUID) error { return q.enqueueErr }
func (q *stubQueue) Snapshot() scheduler.Snapshot                    { return q.snapshot }

type handlerFixture struct {
	router    *chi.Mux
	taskStore *extract.MockTaskStore
	queue     *stubQueue
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	taskStore := extract.NewMockTaskStore()
	queue := &stubQueue{}
	svc, err := service.NewTaskService(admission.NewValidator(admission.DefaultLimits()), taskStore, queue, nil)
	require.NoError(t, err)

	handler := NewTaskHandler(svc)
	router := chi.NewRouter()
	router.Post("/api/tasks", handler.SubmitTask)
	router.Post("/api/tasks/batch", handler.SubmitTaskBatch)
	router.Get("/api/tasks", handler.ListTasks)
	router.Get("/api/tasks/{id}", handler.GetTask)
	router.Get("/api/queue/status", handler.QueueStatus)

	return &handlerFixture{router: router, taskStore: taskStore, queue: queue}
}

// doRequest performs a request as the given user. An empty userID
// leaves the context unauthenticated.
func (f *handlerFixture) doRequest(t *testing.T, method, target, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func validSubmitRequest() SubmitTaskRequest {
	return SubmitTaskRequest{
		ProjectID:      "project-1",
		SourceFilename: "plan.pdf",
		ContentKind:    "application/pdf",
		ByteSize:       1024,
		PageCount:      12,
	}
}

func TestSubmitTaskAccepted(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.doRequest(t, http.MethodPost, "/api/tasks", "user-1", validSubmitRequest())
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "user-1", resp.OwnerID)
	assert.Equal(t, 12, resp.PageCount)
	assert.Nil(t, resp.ExtractedInfo)
	assert.Nil(t, resp.Error)
}

func TestSubmitTaskUnauthenticated(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.doRequest(t, http.MethodPost, "/api/tasks", "", validSubmitRequest())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitTaskInvalidBody(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString("{not json"))
	req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, "user-1"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitTaskUnsupportedKind(t *testing.T) {
	f := newHandlerFixture(t)

	body := validSubmitRequest()
	body.ContentKind = "image/png"

	rec := f.doRequest(t, http.MethodPost, "/api/tasks", "user-1", body)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestSubmitTaskTooLarge(t *testing.T) {
	f := newHandlerFixture(t)

	body := validSubmitRequest()
	body.ByteSize = admission.DefaultMaxFileBytes + 1

	rec := f.doRequest(t, http.MethodPost, "/api/tasks", "user-1", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSubmitTaskQueueFull(t *testing.T) {
	f := newHandlerFixture(t)
	f.queue.enqueueErr = scheduler.ErrQueueFull

	rec := f.doRequest(t, http.MethodPost, "/api/tasks", "user-1", validSubmitRequest())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmitTaskBatchAccepted(t *testing.T) {
	f := newHandlerFixture(t)

	first := validSubmitRequest()
	second := validSubmitRequest()
	second.SourceFilename = "annex.pdf"

	rec := f.doRequest(t, http.MethodPost, "/api/tasks/batch", "user-1",
		BatchSubmitRequest{Items: []SubmitTaskRequest{first, second}})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp BatchSubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalSubmitted)
	require.Len(t, resp.Submitted, 2)
	assert.Empty(t, resp.Failed)
	for _, item := range resp.Submitted {
		assert.Equal(t, "PENDING", item.Status)
		assert.Equal(t, "user-1", item.OwnerID)
	}
}

func TestSubmitTaskBatchPartialFailure(t *testing.T) {
	f := newHandlerFixture(t)

	good := validSubmitRequest()
	rejected := validSubmitRequest()
	rejected.SourceFilename = "scan.png"
	rejected.ContentKind = "image/png"
	incomplete := validSubmitRequest()
	incomplete.SourceFilename = ""

	rec := f.doRequest(t, http.MethodPost, "/api/tasks/batch", "user-1",
		BatchSubmitRequest{Items: []SubmitTaskRequest{good, rejected, incomplete}})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp BatchSubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalSubmitted)
	require.Len(t, resp.Submitted, 1)
	require.Len(t, resp.Failed, 2)
	assert.Equal(t, "scan.png", resp.Failed[0].SourceFilename)
	assert.Contains(t, resp.Failed[0].Error, "Submission rejected")
	assert.Contains(t, resp.Failed[1].Error, "Validation error")
}

func TestSubmitTaskBatchSizeLimit(t *testing.T) {
	f := newHandlerFixture(t)

	items := make([]SubmitTaskRequest, 11)
	for i := range items {
		items[i] = validSubmitRequest()
	}

	rec := f.doRequest(t, http.MethodPost, "/api/tasks/batch", "user-1",
		BatchSubmitRequest{Items: items})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.doRequest(t, http.MethodPost, "/api/tasks/batch", "user-1",
		BatchSubmitRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitTaskBatchUnauthenticated(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.doRequest(t, http.MethodPost, "/api/tasks/batch", "",
		BatchSubmitRequest{Items: []SubmitTaskRequest{validSubmitRequest()}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetTask(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	task, err := domain.NewTask("user-1", "project-1", "ref", 3)
	require.NoError(t, err)
	require.NoError(t, f.taskStore.Create(ctx, task))

	rec := f.doRequest(t, http.MethodGet, "/api/tasks/"+task.ID.String(), "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, task.ID.String(), resp.ID)
}

func TestGetTaskNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.doRequest(t, http.MethodGet, "/api/tasks/"+uuid.NewString(), "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTaskForbidden(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	task, err := domain.NewTask("user-1", "project-1", "ref", 3)
	require.NoError(t, err)
	require.NoError(t, f.taskStore.Create(ctx, task))

	rec := f.doRequest(t, http.MethodGet, "/api/tasks/"+task.ID.String(), "user-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetTaskInvalidID(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.doRequest(t, http.MethodGet, "/api/tasks/not-a-uuid", "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTasksDefaults(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 25; i++ {
		task, err := domain.NewTask("user-1", "project-1", "ref", 1)
		require.NoError(t, err)
		task.SubmittedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, f.taskStore.Create(ctx, task))
	}

	rec := f.doRequest(t, http.MethodGet, "/api/tasks", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 20)
	assert.Equal(t, 25, resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
}

func TestListTasksStatusFilter(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	pending, err := domain.NewTask("user-1", "project-1", "ref", 1)
	require.NoError(t, err)
	require.NoError(t, f.taskStore.Create(ctx, pending))

	failed, err := domain.NewTask("user-1", "project-1", "ref", 1)
	require.NoError(t, err)
	require.NoError(t, failed.MarkProcessing(time.Now()))
	require.NoError(t, failed.MarkFailed(domain.TaskError{Kind: domain.ErrorKindModel, Message: "boom", Attempts: 3}, time.Now()))
	require.NoError(t, f.taskStore.Create(ctx, failed))

	rec := f.doRequest(t, http.MethodGet, "/api/tasks?status=FAILED", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, failed.ID.String(), resp.Items[0].ID)
	require.NotNil(t, resp.Items[0].Error)
	assert.Equal(t, domain.ErrorKindModel, resp.Items[0].Error.Kind)
}

func TestListTasksInvalidStatus(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.doRequest(t, http.MethodGet, "/api/tasks?status=RUNNING", "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTasksInvalidPagination(t *testing.T) {
	f := newHandlerFixture(t)

	for _, target := range []string{
		"/api/tasks?page=0",
		"/api/tasks?page=abc",
		"/api/tasks?page_size=-5",
	} {
		rec := f.doRequest(t, http.MethodGet, target, "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestListTasksPageSizeCeiling(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.doRequest(t, http.MethodGet, "/api/tasks?page_size=500", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 100, resp.PageSize)
}

func TestListTasksOutOfRangePage(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		task, err := domain.NewTask("user-1", "project-1", "ref", 1)
		require.NoError(t, err)
		require.NoError(t, f.taskStore.Create(ctx, task))
	}

	rec := f.doRequest(t, http.MethodGet, "/api/tasks?page=7", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Equal(t, 7, resp.Page)
}

func TestQueueStatus(t *testing.T) {
	f := newHandlerFixture(t)
	f.queue.snapshot = scheduler.Snapshot{Active: 5, Pending: 3, MaxConcurrent: 5}

	rec := f.doRequest(t, http.MethodGet, "/api/queue/status", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap scheduler.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 5, snap.Active)
	assert.Equal(t, 3, snap.Pending)
}

func TestSubmitTaskResponseBodyOmitsInternalError(t *testing.T) {
	f := newHandlerFixture(t)
	f.taskStore.CreateFn = func(ctx context.Context, task *domain.Task) error {
		return fmt.Errorf("pq: connection refused to postgres://user:secret@db:5432")
	}

	rec := f.doRequest(t, http.MethodPost, "/api/tasks", "user-1", validSubmitRequest())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, rec.Body.String(), "An unexpected error occurred")
}
