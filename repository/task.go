package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

type TaskFilter struct {
	Available bool
	Creator   string
	Reviewer  string
	Volunteer string
	Status    domain.TaskStatus
	Limit     int
	Offset    int
}

// TaskRepository persists tasks. The guarded writes (Claim, Submit, Review) apply
// only while their precondition still holds and return domain.ErrStaleTask otherwise.
type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Claim(ctx context.Context, id int64, volunteer string) (*domain.Task, error)
	Submit(ctx context.Context, id int64, volunteer, file string) (*domain.Task, error)
	Review(ctx context.Context, id int64, reviewer string, status domain.TaskStatus, feedback string) (*domain.Task, error)
}
