package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a Postgres-backed task history repository.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, event domain.TaskEvent) error {
	if event.ID == "" || event.TaskID == 0 {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO task_events (id, task_id, name, actor, from_status, to_status, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
	ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.TaskID,
		string(event.Name),
		event.Actor,
		string(event.FromStatus),
		string(event.ToStatus),
		marshalMap(event.Metadata),
		nullTime(event.CreatedAt),
	)
	return err
}

func (r *eventRepository) ListByTask(ctx context.Context, taskID int64) ([]domain.TaskEvent, error) {
	const query = `
	SELECT id, task_id, name, actor, from_status, to_status, metadata, created_at
	FROM task_events
	WHERE task_id = $1
	ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TaskEvent
	for rows.Next() {
		var (
			event                domain.TaskEvent
			name, fromStatus, to string
			metadata             []byte
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &name, &event.Actor, &fromStatus, &to, &metadata, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Name = domain.WorkflowEvent(name)
		event.FromStatus = domain.TaskStatus(fromStatus)
		event.ToStatus = domain.TaskStatus(to)
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &event.Metadata)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
