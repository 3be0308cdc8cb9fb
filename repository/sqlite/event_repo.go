package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type eventRow struct {
	ID         string         `db:"id"`
	TaskID     int64          `db:"task_id"`
	Name       string         `db:"name"`
	Actor      string         `db:"actor"`
	FromStatus string         `db:"from_status"`
	ToStatus   string         `db:"to_status"`
	Metadata   sql.NullString `db:"metadata"`
	CreatedAt  time.Time      `db:"created_at"`
}

type eventRepository struct {
	store *Store
}

// NewEventRepository returns a SQLite-backed EventRepository.
func NewEventRepository(store *Store) repository.EventRepository {
	return &eventRepository{store: store}
}

func (r *eventRepository) Append(ctx context.Context, event domain.TaskEvent) error {
	if event.ID == "" || event.TaskID == 0 {
		return domain.ErrInvalidPayload
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now()
	}

	var metadata sql.NullString
	if len(event.Metadata) > 0 {
		b, err := json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
		metadata = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.store.db.ExecContext(ctx, `
	INSERT INTO task_events (id, task_id, name, actor, from_status, to_status, metadata, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO NOTHING`,
		event.ID, event.TaskID, string(event.Name), event.Actor,
		string(event.FromStatus), string(event.ToStatus), metadata, event.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepository) ListByTask(ctx context.Context, taskID int64) ([]domain.TaskEvent, error) {
	var rows []eventRow
	err := r.store.db.SelectContext(ctx, &rows, `
	SELECT id, task_id, name, actor, from_status, to_status, metadata, created_at
	FROM task_events
	WHERE task_id = ?
	ORDER BY created_at ASC, rowid ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]domain.TaskEvent, 0, len(rows))
	for _, row := range rows {
		event := domain.TaskEvent{
			ID:         row.ID,
			TaskID:     row.TaskID,
			Name:       domain.WorkflowEvent(row.Name),
			Actor:      row.Actor,
			FromStatus: domain.TaskStatus(row.FromStatus),
			ToStatus:   domain.TaskStatus(row.ToStatus),
			CreatedAt:  row.CreatedAt,
		}
		if row.Metadata.Valid {
			_ = json.Unmarshal([]byte(row.Metadata.String), &event.Metadata)
		}
		events = append(events, event)
	}
	return events, nil
}
