package extract

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tessellate-ai/extract-api/internal/domain"
	"github.com/tessellate-ai/extract-api/internal/store"
)

// MockTaskStore implements store.TaskStore in memory for testing.
// Updates are applied under a mutex so concurrent workers can share it.
type MockTaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task

	// CreateFn, GetFn, ClaimFn and UpdateFn override the default
	// behavior when non-nil, allowing tests to inject failures.
	CreateFn func(ctx context.Context, task *domain.Task) error
	GetFn    func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ClaimFn  func(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error)
	UpdateFn func(ctx context.Context, id uuid.UUID, status domain.TaskStatus, fields store.UpdateFields) error
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

// Create persists a copy of the task.
func (s *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, task)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *task
	s.tasks[task.ID] = &cp
	return nil
}

// GetByID returns a copy of the stored task.
func (s *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

// Claim transitions the task from PENDING to PROCESSING if it still is
// PENDING, mirroring the compare-and-swap of the postgres store.
func (s *MockTaskStore) Claim(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, id, startedAt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return false, store.ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusPending {
		return false, nil
	}

	task.Status = domain.TaskStatusProcessing
	task.StartedAt = &startedAt
	return true, nil
}

// UpdateStatus applies a status transition and the accompanying fields.
func (s *MockTaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
	fields store.UpdateFields,
) error {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, id, status, fields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}

	task.Status = status
	if fields.StartedAt != nil {
		task.StartedAt = fields.StartedAt
	}
	if fields.CompletedAt != nil {
		task.CompletedAt = fields.CompletedAt
	}
	if fields.ExtractedInfo != nil {
		task.ExtractedInfo = fields.ExtractedInfo
		task.Error = nil
	}
	if fields.TaskError != nil {
		task.Error = fields.TaskError
		task.ExtractedInfo = nil
	}
	if fields.AttemptCount != nil {
		task.AttemptCount = *fields.AttemptCount
	}
	return nil
}

// List returns a filtered page of tasks, newest submission first.
func (s *MockTaskStore) List(
	ctx context.Context,
	filter store.Filter,
	page store.Page,
) ([]*domain.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Industry != nil {
			if task.ExtractedInfo == nil || task.ExtractedInfo.Industry != *filter.Industry {
				continue
			}
		}
		cp := *task
		matched = append(matched, &cp)
	}

	sortBySubmittedDesc(matched)

	page = page.Normalize()
	total := len(matched)
	start := page.Offset()
	if start >= total {
		return []*domain.Task{}, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// ListByStatus returns all tasks in the given status, oldest
// submission first.
func (s *MockTaskStore) ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Task, 0)
	for _, task := range s.tasks {
		if task.Status == status {
			cp := *task
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func sortBySubmittedDesc(tasks []*domain.Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].SubmittedAt.After(tasks[j].SubmittedAt) })
}

// MockInvoker implements Invoker with a scripted response sequence.
type MockInvoker struct {
	mu       sync.Mutex
	calls    int
	InvokeFn func(ctx context.Context, sourceRef string, pageCount int, call int) (RawResult, error)
}

var _ Invoker = (*MockInvoker)(nil)

// Invoke dispatches to InvokeFn, passing the 1-based call number.
func (m *MockInvoker) Invoke(ctx context.Context, sourceRef string, pageCount int) (RawResult, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	if m.InvokeFn == nil {
		return RawResult{}, nil
	}
	return m.InvokeFn(ctx, sourceRef, pageCount, call)
}

// Calls returns the number of Invoke calls made so far.
func (m *MockInvoker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
