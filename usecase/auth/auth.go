package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/token"
	"github.com/fastygo/taskflow/repository"
)

// Authenticator verifies credentials against the user directory.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password, role string) (*domain.User, error)
}

// Grant is what a successful login or refresh hands back to the client.
type Grant struct {
	Session *domain.Session `json:"session"`
	Token   string          `json:"token"`
}

type UseCase struct {
	users    Authenticator
	sessions repository.SessionRepository
	tokens   *token.Manager
	logger   *zap.Logger
}

func New(users Authenticator, sessions repository.SessionRepository, tokens *token.Manager, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login authenticates the user and opens a session for the requested role.
func (uc *UseCase) Login(ctx context.Context, username, password, role string, ttl time.Duration) (*Grant, error) {
	user, err := uc.users.Authenticate(ctx, username, password, role)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	signed, err := uc.tokens.Issue(session.ID, session.Username, string(session.Role), session.ExpiresAt)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("session opened", zap.String("username", user.Username), zap.String("session_id", session.ID))
	return &Grant{Session: session, Token: signed}, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession extends a live session and issues a token with the new expiry.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*Grant, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = time.Now().Add(ttl)

	signed, err := uc.tokens.Issue(session.ID, session.Username, string(session.Role), session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &Grant{Session: session, Token: signed}, nil
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

// Resolve maps a bearer token to the acting user. The token must be valid and its
// session must still exist, so logout takes effect before the token expires.
func (uc *UseCase) Resolve(ctx context.Context, bearer string) (domain.Actor, string, error) {
	claims, err := uc.tokens.Parse(bearer)
	if err != nil {
		uc.logger.Debug("token rejected", zap.Error(err))
		return domain.Actor{}, "", domain.ErrUnauthorized
	}

	session, err := uc.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Actor{}, "", domain.ErrUnauthorized
		}
		return domain.Actor{}, "", err
	}
	if session.Username != claims.Subject {
		return domain.Actor{}, "", domain.ErrUnauthorized
	}
	return session.Actor(), session.ID, nil
}
