package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const taskColumns = `id, domain, description, file_path, status, feedback, submitted_file_path,
	creator, reviewer, volunteer, created_at, updated_at`

type taskRow struct {
	ID                int64          `db:"id"`
	Domain            string         `db:"domain"`
	Description       string         `db:"description"`
	FilePath          sql.NullString `db:"file_path"`
	Status            string         `db:"status"`
	Feedback          sql.NullString `db:"feedback"`
	SubmittedFilePath sql.NullString `db:"submitted_file_path"`
	Creator           string         `db:"creator"`
	Reviewer          string         `db:"reviewer"`
	Volunteer         sql.NullString `db:"volunteer"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r taskRow) toDomain() domain.Task {
	return domain.Task{
		ID:                r.ID,
		Domain:            r.Domain,
		Description:       r.Description,
		FilePath:          r.FilePath.String,
		Status:            domain.TaskStatus(r.Status),
		Feedback:          r.Feedback.String,
		SubmittedFilePath: r.SubmittedFilePath.String,
		Creator:           r.Creator,
		Reviewer:          r.Reviewer,
		Volunteer:         r.Volunteer.String,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type taskRepository struct {
	store *Store
}

// NewTaskRepository returns a SQLite-backed TaskRepository.
func NewTaskRepository(store *Store) repository.TaskRepository {
	return &taskRepository{store: store}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return getTask(ctx, r.store.db, id)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query, args, err := sqlx.Named(`
	SELECT `+taskColumns+`
	FROM tasks
	WHERE (:available = 0 OR volunteer IS NULL)
	  AND (:creator = '' OR creator = :creator)
	  AND (:reviewer = '' OR reviewer = :reviewer)
	  AND (:volunteer = '' OR volunteer = :volunteer)
	  AND (:status = '' OR status = :status)
	ORDER BY id ASC
	LIMIT :limit OFFSET :offset`, map[string]interface{}{
		"available": filter.Available,
		"creator":   filter.Creator,
		"reviewer":  filter.Reviewer,
		"volunteer": filter.Volunteer,
		"status":    string(filter.Status),
		"limit":     clampLimit(filter.Limit),
		"offset":    filter.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("build task query: %w", err)
	}

	var rows []taskRow
	if err := r.store.db.SelectContext(ctx, &rows, r.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toDomain())
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.Status == "" {
		task.Status = domain.StatusNotDone
	}
	ts := now()

	res, err := r.store.db.ExecContext(ctx, `
	INSERT INTO tasks (domain, description, file_path, status, creator, reviewer, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Domain, task.Description, nullString(task.FilePath), string(task.Status),
		task.Creator, task.Reviewer, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	task.ID = id
	task.CreatedAt = ts
	task.UpdatedAt = ts
	return task, nil
}

func (r *taskRepository) Claim(ctx context.Context, id int64, volunteer string) (*domain.Task, error) {
	return r.guardedUpdate(ctx, id, `
	UPDATE tasks SET volunteer = ?, status = ?, updated_at = ?
	WHERE id = ? AND volunteer IS NULL AND status = ?`,
		volunteer, string(domain.StatusInProgress), now(), id, string(domain.StatusNotDone))
}

func (r *taskRepository) Submit(ctx context.Context, id int64, volunteer, file string) (*domain.Task, error) {
	return r.guardedUpdate(ctx, id, `
	UPDATE tasks SET submitted_file_path = ?, updated_at = ?
	WHERE id = ? AND volunteer = ? AND status = ?`,
		file, now(), id, volunteer, string(domain.StatusInProgress))
}

func (r *taskRepository) Review(ctx context.Context, id int64, reviewer string, status domain.TaskStatus, feedback string) (*domain.Task, error) {
	return r.guardedUpdate(ctx, id, `
	UPDATE tasks SET status = ?, feedback = ?, updated_at = ?
	WHERE id = ? AND reviewer = ? AND status = ? AND COALESCE(submitted_file_path, '') <> ''`,
		string(status), nullString(feedback), now(), id, reviewer, string(domain.StatusInProgress))
}

// guardedUpdate runs a conditional UPDATE and reads the row back in one transaction.
func (r *taskRepository) guardedUpdate(ctx context.Context, id int64, query string, args ...interface{}) (*domain.Task, error) {
	tx, err := r.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrStaleTask
	}

	task, err := getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return task, nil
}

func getTask(ctx context.Context, q sqlx.QueryerContext, id int64) (*domain.Task, error) {
	var row taskRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	task := row.toDomain()
	return &task, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
