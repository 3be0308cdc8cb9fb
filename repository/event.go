package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

type EventRepository interface {
	// Append is idempotent on event ID so buffered retries do not duplicate history.
	Append(ctx context.Context, event domain.TaskEvent) error
	ListByTask(ctx context.Context, taskID int64) ([]domain.TaskEvent, error)
}
