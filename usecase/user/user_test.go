package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/password"
	"github.com/fastygo/taskflow/repository/sqlite"
)

func newUseCase(t *testing.T) *UseCase {
	t.Helper()
	store, err := sqlite.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(sqlite.NewUserRepository(store), password.NewHasher(bcrypt.MinCost), zap.NewNop())
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t)

	user, err := uc.Register(ctx, "alice", "pw", "alice@example.org", "epm")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEPM, user.Role)
	assert.NotEqual(t, "pw", user.PasswordHash)

	_, err = uc.Register(ctx, "alice", "other", "other@example.org", "Reviewer")
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	stored, err := uc.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.org", stored.Email)
	assert.Equal(t, domain.RoleEPM, stored.Role)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t)

	_, err := uc.Register(ctx, "", "pw", "a@example.org", "EPM")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	_, err = uc.Register(ctx, "alice", "", "a@example.org", "EPM")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	_, err = uc.Register(ctx, "alice", "pw", " ", "EPM")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	_, err = uc.Register(ctx, "alice", "pw", "a@example.org", "Admin")
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t)

	_, err := uc.Register(ctx, "alice", "pw", "alice@example.org", "EPM")
	require.NoError(t, err)

	user, err := uc.Authenticate(ctx, "alice", "pw", "epm")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	for _, tc := range []struct{ name, username, password, role string }{
		{"wrong password", "alice", "nope", "EPM"},
		{"wrong role", "alice", "pw", "Reviewer"},
		{"unknown user", "zed", "pw", "EPM"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Authenticate(ctx, tc.username, tc.password, tc.role)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		})
	}
}

func TestFindByUsername_Unknown(t *testing.T) {
	_, err := newUseCase(t).FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestListByRole(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t)

	_, err := uc.Register(ctx, "carl", "pw", "carl@example.org", "Reviewer")
	require.NoError(t, err)
	_, err = uc.Register(ctx, "bob", "pw", "bob@example.org", "Volunteer")
	require.NoError(t, err)

	reviewers, err := uc.ListByRole(ctx, "reviewer")
	require.NoError(t, err)
	require.Len(t, reviewers, 1)
	assert.Equal(t, "carl", reviewers[0].Username)

	_, err = uc.ListByRole(ctx, "boss")
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}
