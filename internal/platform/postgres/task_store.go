package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tessellate-ai/extract-api/internal/domain"
	"github.com/tessellate-ai/extract-api/internal/platform/logger"
	"github.com/tessellate-ai/extract-api/internal/store"
)

// PostgreSQL error codes
const pgUniqueViolationCode = "23505"

const taskColumns = `id, owner_id, project_id, source_ref, status, page_count,
	submitted_at, started_at, completed_at, extracted_info, task_error, attempt_count`

// PostgresTaskStore implements the store.TaskStore interface using a
// PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction
// managed by the caller. If logger is nil, a default logger is used.
func NewPostgresTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
	}
}

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO extraction_tasks
			(id, owner_id, project_id, source_ref, status, page_count, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.OwnerID,
		task.ProjectID,
		task.SourceRef,
		task.Status,
		task.PageCount,
		task.SubmittedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return fmt.Errorf("%w: task %s already exists", store.ErrInvalidEntity, task.ID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM extraction_tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	return task, nil
}

// Claim implements store.TaskStore.Claim. The status guard in the
// UPDATE makes the PENDING to PROCESSING transition a compare-and-swap:
// when two workers hold the same task ID (duplicate queue entries after
// a recovery pass), exactly one sees a row affected.
func (s *PostgresTaskStore) Claim(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE extraction_tasks
		SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query, domain.TaskStatusProcessing, startedAt, id, domain.TaskStatusPending)
	if err != nil {
		log.Error("failed to claim task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		log.Debug("task not claimable", slog.String("task_id", id.String()))
		return false, nil
	}

	log.Info("task claimed", slog.String("task_id", id.String()))
	return true, nil
}

// UpdateStatus implements store.TaskStore.UpdateStatus. The transition
// and its accompanying fields are written in a single UPDATE statement
// so concurrent readers observe either the old or the new record,
// never a partial write. Updates to tasks already in a terminal state
// are rejected.
func (s *PostgresTaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
	fields store.UpdateFields,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !domain.IsValidTaskStatus(status) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTaskStatus, status)
	}

	set := []string{"status = $1"}
	args := []any{status}

	appendArg := func(expr string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf(expr, len(args)))
	}

	if fields.StartedAt != nil {
		appendArg("started_at = $%d", *fields.StartedAt)
	}
	if fields.CompletedAt != nil {
		appendArg("completed_at = $%d", *fields.CompletedAt)
	}
	if fields.ExtractedInfo != nil {
		data, err := json.Marshal(fields.ExtractedInfo)
		if err != nil {
			return fmt.Errorf("marshal extracted info: %w", err)
		}
		appendArg("extracted_info = $%d", data)
		set = append(set, "task_error = NULL")
	}
	if fields.TaskError != nil {
		data, err := json.Marshal(fields.TaskError)
		if err != nil {
			return fmt.Errorf("marshal task error: %w", err)
		}
		appendArg("task_error = $%d", data)
		set = append(set, "extracted_info = NULL")
	}
	if fields.AttemptCount != nil {
		appendArg("attempt_count = $%d", *fields.AttemptCount)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE extraction_tasks
		SET %s
		WHERE id = $%d AND status NOT IN ('SUCCEEDED', 'FAILED')
	`, strings.Join(set, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("status", string(status)))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either the task does not exist or it is already terminal.
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: task %s", store.ErrTerminalState, id)
	}

	log.Info("task status updated",
		slog.String("task_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// List implements store.TaskStore.List: a filtered page of tasks
// sorted by submission time descending, plus the total match count.
func (s *PostgresTaskStore) List(
	ctx context.Context,
	filter store.Filter,
	page store.Page,
) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	page = page.Normalize()

	where := []string{}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Industry != nil {
		args = append(args, *filter.Industry)
		where = append(where, fmt.Sprintf("extracted_info->>'industry' = $%d", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM extraction_tasks" + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks", slog.String("error", err.Error()))
		return nil, 0, err
	}

	listArgs := append(args, page.Size, page.Offset())
	listQuery := fmt.Sprintf(
		"SELECT %s FROM extraction_tasks%s ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d",
		taskColumns, whereClause, len(listArgs)-1, len(listArgs),
	)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0, page.Size)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListByStatus implements store.TaskStore.ListByStatus, oldest
// submission first.
func (s *PostgresTaskStore) ListByStatus(
	ctx context.Context,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM extraction_tasks
		WHERE status = $1
		ORDER BY submitted_at ASC`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task          domain.Task
		status        string
		startedAt     sql.NullTime
		completedAt   sql.NullTime
		extractedInfo []byte
		taskError     []byte
	)

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.ProjectID,
		&task.SourceRef,
		&status,
		&task.PageCount,
		&task.SubmittedAt,
		&startedAt,
		&completedAt,
		&extractedInfo,
		&taskError,
		&task.AttemptCount,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	if startedAt.Valid {
		t := startedAt.Time
		task.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	if len(extractedInfo) > 0 {
		var info domain.ExtractedInfo
		if err := json.Unmarshal(extractedInfo, &info); err != nil {
			return nil, fmt.Errorf("unmarshal extracted info: %w", err)
		}
		task.ExtractedInfo = &info
	}
	if len(taskError) > 0 {
		var taskErr domain.TaskError
		if err := json.Unmarshal(taskError, &taskErr); err != nil {
			return nil, fmt.Errorf("unmarshal task error: %w", err)
		}
		task.Error = &taskErr
	}

	return &task, nil
}
