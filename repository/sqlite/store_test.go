package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUsers(t *testing.T, store *Store) {
	t.Helper()
	users := NewUserRepository(store)
	for _, u := range []domain.User{
		{Username: "alice", PasswordHash: "x", Email: "alice@example.org", Role: domain.RoleEPM},
		{Username: "bob", PasswordHash: "x", Email: "bob@example.org", Role: domain.RoleVolunteer},
		{Username: "dave", PasswordHash: "x", Email: "dave@example.org", Role: domain.RoleVolunteer},
		{Username: "carl", PasswordHash: "x", Email: "carl@example.org", Role: domain.RoleReviewer},
	} {
		u := u
		require.NoError(t, users.Create(context.Background(), &u))
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := NewUserRepository(store)

	alice := &domain.User{Username: "alice", PasswordHash: "hash", Email: "a@example.org", Role: domain.RoleEPM}
	require.NoError(t, repo.Create(ctx, alice))
	assert.NotZero(t, alice.ID)

	dup := &domain.User{Username: "alice", PasswordHash: "other", Email: "b@example.org", Role: domain.RoleReviewer}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicateUsername)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, domain.RoleEPM, got.Role)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "zoe", PasswordHash: "h", Email: "z@example.org", Role: domain.RoleReviewer}))
	require.NoError(t, repo.Create(ctx, &domain.User{Username: "carl", PasswordHash: "h", Email: "c@example.org", Role: domain.RoleReviewer}))
	reviewers, err := repo.ListByRole(ctx, domain.RoleReviewer)
	require.NoError(t, err)
	require.Len(t, reviewers, 2)
	assert.Equal(t, "carl", reviewers[0].Username)
	assert.Equal(t, "zoe", reviewers[1].Username)
}

func TestTaskRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedUsers(t, store)
	repo := NewTaskRepository(store)

	created, err := repo.Create(ctx, &domain.Task{
		Domain:      "Translation",
		Description: "Translate doc",
		FilePath:    "doc.pdf",
		Creator:     "alice",
		Reviewer:    "carl",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.StatusNotDone, created.Status)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "doc.pdf", got.FilePath)
	assert.Empty(t, got.Volunteer)

	claimed, err := repo.Claim(ctx, created.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", claimed.Volunteer)
	assert.Equal(t, domain.StatusInProgress, claimed.Status)

	_, err = repo.Claim(ctx, created.ID, "dave")
	assert.ErrorIs(t, err, domain.ErrStaleTask)

	_, err = repo.Submit(ctx, created.ID, "dave", "x.pdf")
	assert.ErrorIs(t, err, domain.ErrStaleTask)

	submitted, err := repo.Submit(ctx, created.ID, "bob", "translated.pdf")
	require.NoError(t, err)
	assert.Equal(t, "translated.pdf", submitted.SubmittedFilePath)
	assert.Equal(t, domain.StatusInProgress, submitted.Status)

	reviewed, err := repo.Review(ctx, created.ID, "carl", domain.StatusDone, "Looks good")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, reviewed.Status)
	assert.Equal(t, "Looks good", reviewed.Feedback)

	_, err = repo.Review(ctx, created.ID, "carl", domain.StatusNeedsChanges, "again")
	assert.ErrorIs(t, err, domain.ErrStaleTask)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = repo.Claim(ctx, 9999, "bob")
	assert.ErrorIs(t, err, domain.ErrStaleTask)
}

func TestTaskRepository_ReviewRequiresSubmission(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedUsers(t, store)
	repo := NewTaskRepository(store)

	task, err := repo.Create(ctx, &domain.Task{Domain: "d", Creator: "alice", Reviewer: "carl"})
	require.NoError(t, err)
	_, err = repo.Claim(ctx, task.ID, "bob")
	require.NoError(t, err)

	_, err = repo.Review(ctx, task.ID, "carl", domain.StatusDone, "")
	assert.ErrorIs(t, err, domain.ErrStaleTask)
}

func TestTaskRepository_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedUsers(t, store)
	repo := NewTaskRepository(store)

	task, err := repo.Create(ctx, &domain.Task{Domain: "d", Creator: "alice", Reviewer: "carl"})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	for _, name := range []string{"bob", "dave", "bob", "dave"} {
		wg.Add(1)
		go func(volunteer string) {
			defer wg.Done()
			if _, err := repo.Claim(ctx, task.ID, volunteer); err == nil {
				mu.Lock()
				winners = append(winners, volunteer)
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], got.Volunteer)
}

func TestTaskRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedUsers(t, store)
	repo := NewTaskRepository(store)

	var ids []int64
	for i := 0; i < 3; i++ {
		task, err := repo.Create(ctx, &domain.Task{Domain: "d", Creator: "alice", Reviewer: "carl"})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	_, err := repo.Claim(ctx, ids[1], "bob")
	require.NoError(t, err)

	available, err := repo.List(ctx, repository.TaskFilter{Available: true})
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, ids[0], available[0].ID)
	assert.Equal(t, ids[2], available[1].ID)

	mine, err := repo.List(ctx, repository.TaskFilter{Volunteer: "bob"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, ids[1], mine[0].ID)

	inProgress, err := repo.List(ctx, repository.TaskFilter{Status: domain.StatusInProgress, Reviewer: "carl"})
	require.NoError(t, err)
	assert.Len(t, inProgress, 1)

	all, err := repo.List(ctx, repository.TaskFilter{Creator: "alice"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := repo.List(ctx, repository.TaskFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)
}

func TestTaskRepository_UnknownReferenceRejected(t *testing.T) {
	store := openTestStore(t)
	seedUsers(t, store)
	repo := NewTaskRepository(store)

	_, err := repo.Create(context.Background(), &domain.Task{Domain: "d", Creator: "alice", Reviewer: "ghost"})
	assert.Error(t, err)
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedUsers(t, store)
	task, err := NewTaskRepository(store).Create(ctx, &domain.Task{Domain: "d", Creator: "alice", Reviewer: "carl"})
	require.NoError(t, err)

	repo := NewEventRepository(store)
	base := time.Now().UTC()
	created := domain.TaskEvent{
		ID:        "evt-1",
		TaskID:    task.ID,
		Name:      domain.EventCreated,
		Actor:     "alice",
		ToStatus:  domain.StatusNotDone,
		CreatedAt: base,
	}
	claimed := domain.TaskEvent{
		ID:         "evt-2",
		TaskID:     task.ID,
		Name:       domain.EventClaimed,
		Actor:      "bob",
		FromStatus: domain.StatusNotDone,
		ToStatus:   domain.StatusInProgress,
		Metadata:   map[string]string{"note": "first"},
		CreatedAt:  base.Add(time.Second),
	}

	require.NoError(t, repo.Append(ctx, claimed))
	require.NoError(t, repo.Append(ctx, created))
	require.NoError(t, repo.Append(ctx, claimed))

	events, err := repo.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "evt-2", events[1].ID)
	assert.Equal(t, "first", events[1].Metadata["note"])
	assert.Equal(t, domain.StatusNotDone, events[1].FromStatus)

	assert.ErrorIs(t, repo.Append(ctx, domain.TaskEvent{TaskID: task.ID}), domain.ErrInvalidPayload)
}

func TestStorePing(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))

	var closed *Store
	assert.Error(t, closed.Ping(context.Background()))
}
