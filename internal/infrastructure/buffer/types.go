package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityTaskEvent = "task_event"

	OperationAppend = "append"
)

// Lower values drain first.
const (
	PriorityHigh   = 1
	PriorityNormal = 3
	PriorityLow    = 5
)

// Item is a write that waits in the buffer until the primary store accepts it.
type Item struct {
	ID        string          `json:"id"`
	Actor     string          `json:"actor"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority < PriorityHigh || i.Priority > PriorityLow {
		i.Priority = PriorityNormal
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
