package user

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/usecase"
)

// UseCase is the user directory: sign-up, credential checks and lookups.
type UseCase struct {
	users  repository.UserRepository
	hasher usecase.Hasher
	logger *zap.Logger
}

func New(users repository.UserRepository, hasher usecase.Hasher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates an account unless the username is already taken.
func (uc *UseCase) Register(ctx context.Context, username, password, email, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" || email == "" || role == "" {
		return nil, domain.ErrInvalidPayload
	}
	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}

	if _, err := uc.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrDuplicateUsername
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hashed,
		Email:        email,
		Role:         parsedRole,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.logger.Info("user registered", zap.String("username", username), zap.String("role", string(parsedRole)))
	return user, nil
}

// Authenticate checks username, password and role. Every failure is ErrInvalidCredentials.
func (uc *UseCase) Authenticate(ctx context.Context, username, password, role string) (*domain.User, error) {
	user, err := uc.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := uc.hasher.Compare(user.PasswordHash, password); err != nil {
		uc.logger.Debug("password rejected", zap.String("username", user.Username))
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Role.Is(domain.Role(strings.TrimSpace(role))) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (uc *UseCase) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return uc.users.GetByUsername(ctx, username)
}

// ListByRole returns the users holding role, e.g. the reviewers an EPM may assign.
func (uc *UseCase) ListByRole(ctx context.Context, role string) ([]domain.User, error) {
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return uc.users.ListByRole(ctx, parsed)
}
