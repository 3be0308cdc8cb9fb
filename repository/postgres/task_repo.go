package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const taskColumns = `id, domain, description, file_path, status, feedback, submitted_file_path,
	creator, reviewer, volunteer, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE (NOT $1 OR volunteer IS NULL)
	  AND ($2 = '' OR creator = $2)
	  AND ($3 = '' OR reviewer = $3)
	  AND ($4 = '' OR volunteer = $4)
	  AND ($5 = '' OR status = $5)
	ORDER BY id ASC
	LIMIT $6 OFFSET $7
	`
	rows, err := r.pool.Query(ctx, query,
		filter.Available,
		filter.Creator,
		filter.Reviewer,
		filter.Volunteer,
		string(filter.Status),
		clampLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.Status == "" {
		task.Status = domain.StatusNotDone
	}

	const query = `
	INSERT INTO tasks (domain, description, file_path, status, creator, reviewer)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.Domain,
		task.Description,
		nullString(task.FilePath),
		string(task.Status),
		task.Creator,
		task.Reviewer,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Claim(ctx context.Context, id int64, volunteer string) (*domain.Task, error) {
	query := `
	UPDATE tasks
	SET volunteer = $2,
		status = $3,
		updated_at = NOW()
	WHERE id = $1
	  AND volunteer IS NULL
	  AND status = $4
	RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query, id, volunteer, string(domain.StatusInProgress), string(domain.StatusNotDone))
	return guarded(scanTask(row))
}

func (r *taskRepository) Submit(ctx context.Context, id int64, volunteer, file string) (*domain.Task, error) {
	query := `
	UPDATE tasks
	SET submitted_file_path = $3,
		updated_at = NOW()
	WHERE id = $1
	  AND volunteer = $2
	  AND status = $4
	RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query, id, volunteer, file, string(domain.StatusInProgress))
	return guarded(scanTask(row))
}

func (r *taskRepository) Review(ctx context.Context, id int64, reviewer string, status domain.TaskStatus, feedback string) (*domain.Task, error) {
	query := `
	UPDATE tasks
	SET status = $3,
		feedback = $4,
		updated_at = NOW()
	WHERE id = $1
	  AND reviewer = $2
	  AND status = $5
	  AND COALESCE(submitted_file_path, '') <> ''
	RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query, id, reviewer, string(status), nullString(feedback), string(domain.StatusInProgress))
	return guarded(scanTask(row))
}

// guarded turns a missing row from a conditional UPDATE into ErrStaleTask.
func guarded(task *domain.Task, err error) (*domain.Task, error) {
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, domain.ErrStaleTask
	}
	return task, err
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		status                                       string
		filePath, feedback, submittedPath, volunteer *string
	)

	if err := row.Scan(
		&task.ID,
		&task.Domain,
		&task.Description,
		&filePath,
		&status,
		&feedback,
		&submittedPath,
		&task.Creator,
		&task.Reviewer,
		&volunteer,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.FilePath = deref(filePath)
	task.Feedback = deref(feedback)
	task.SubmittedFilePath = deref(submittedPath)
	task.Volunteer = deref(volunteer)

	return &task, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
