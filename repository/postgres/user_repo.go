package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
		SELECT id, username, password_hash, email, role, created_at
		FROM users
		WHERE username = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `
		SELECT id, username, password_hash, email, role, created_at
		FROM users
		WHERE role = $1
		ORDER BY username
	`
	rows, err := r.pool.Query(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || user.Username == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (username, password_hash, email, role, created_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
	RETURNING id, created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Email,
		string(user.Role),
		nullTime(user.CreatedAt),
	).Scan(&user.ID, &user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...interface{}) error
}) (*domain.User, error) {
	var user domain.User
	var role string

	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &role, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}
