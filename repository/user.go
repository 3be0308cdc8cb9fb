package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	// Create returns domain.ErrDuplicateUsername when the username is taken.
	Create(ctx context.Context, user *domain.User) error
}
