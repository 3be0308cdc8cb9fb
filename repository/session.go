package repository

import (
	"context"

	"github.com/fastygo/taskflow/domain"
)

// SessionRepository stores login sessions with a server-side expiry.
// Get and Extend return domain.ErrSessionNotFound once a session is gone.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	// Extend pushes the expiry ttlSeconds into the future without recreating a revoked session.
	Extend(ctx context.Context, id string, ttlSeconds int) error
}
