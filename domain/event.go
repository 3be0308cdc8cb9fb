package domain

import "time"

// TaskEvent records one workflow transition of a task.
type TaskEvent struct {
	ID         string            `json:"id"`
	TaskID     int64             `json:"task_id"`
	Name       WorkflowEvent     `json:"name"`
	Actor      string            `json:"actor"`
	FromStatus TaskStatus        `json:"from_status,omitempty"`
	ToStatus   TaskStatus        `json:"to_status"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
