package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/infrastructure/buffer"
	"github.com/fastygo/taskflow/usecase"
)

type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

// RecordEvent routes a task event through the processor. The buffer item reuses the
// event ID so a replay after partial failure stays idempotent.
func (b *BufferBridge) RecordEvent(ctx context.Context, event domain.TaskEvent) error {
	if b.processor == nil || event.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	item := buffer.Item{
		ID:        event.ID,
		Actor:     event.Actor,
		Entity:    buffer.EntityTaskEvent,
		Operation: buffer.OperationAppend,
		Data:      payload,
		Priority:  buffer.PriorityNormal,
		Timestamp: event.CreatedAt,
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.EventRecorder = (*BufferBridge)(nil)
