package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Email:        r.Email,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}

type userRepository struct {
	store *Store
}

// NewUserRepository returns a SQLite-backed UserRepository.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var row userRow
	err := r.store.db.GetContext(ctx, &row,
		`SELECT id, username, password_hash, email, role, created_at FROM users WHERE username = ?`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user := row.toDomain()
	return &user, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var rows []userRow
	err := r.store.db.SelectContext(ctx, &rows,
		`SELECT id, username, password_hash, email, role, created_at FROM users WHERE role = ? ORDER BY username`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || user.Username == "" {
		return domain.ErrInvalidPayload
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}

	res, err := r.store.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, email, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.PasswordHash, user.Email, string(user.Role), user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = id
	return nil
}
