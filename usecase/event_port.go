package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
)

// EventRecorder abstracts the buffered history writer so use cases stay storage-agnostic.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event domain.TaskEvent) error
}

// Hasher hashes and verifies user passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hashed, plain string) error
}

// Record stamps event and hands it to rec. History is best effort: failures are
// logged and never undo the transition that produced the event.
func Record(ctx context.Context, rec EventRecorder, logger *zap.Logger, event domain.TaskEvent) {
	if rec == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := rec.RecordEvent(ctx, event); err != nil && logger != nil {
		logger.Error("failed to record task event",
			zap.Int64("task_id", event.TaskID),
			zap.String("event", string(event.Name)),
			zap.Error(err))
	}
}
