package task

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/sqlite"
)

type memoryRecorder struct {
	mu     sync.Mutex
	events []domain.TaskEvent
	err    error
}

func (r *memoryRecorder) RecordEvent(_ context.Context, event domain.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

type fixture struct {
	uc       *UseCase
	tasks    repository.TaskRepository
	events   repository.EventRepository
	recorder *memoryRecorder
}

var (
	alice = domain.Actor{Username: "alice", Role: domain.RoleEPM}
	bob   = domain.Actor{Username: "bob", Role: domain.RoleVolunteer}
	carl  = domain.Actor{Username: "carl", Role: domain.RoleReviewer}
)

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := sqlite.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	users := sqlite.NewUserRepository(store)
	for _, a := range []domain.Actor{alice, bob, carl} {
		require.NoError(t, users.Create(context.Background(), &domain.User{
			Username:     a.Username,
			PasswordHash: "x",
			Email:        a.Username + "@example.org",
			Role:         a.Role,
		}))
	}

	f := fixture{
		tasks:    sqlite.NewTaskRepository(store),
		events:   sqlite.NewEventRepository(store),
		recorder: &memoryRecorder{},
	}
	f.uc = New(f.tasks, users, f.events, f.recorder, zap.NewNop())
	return f
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task, err := f.uc.CreateTask(ctx, alice, CreateInput{
		Domain:      "Translation",
		Description: "Translate doc",
		FilePath:    "doc.pdf",
		Reviewer:    "carl",
	})
	require.NoError(t, err)
	assert.NotZero(t, task.ID)
	assert.Equal(t, domain.StatusNotDone, task.Status)
	assert.Equal(t, "alice", task.Creator)
	assert.Equal(t, "carl", task.Reviewer)
	assert.Empty(t, task.Volunteer)

	require.Len(t, f.recorder.events, 1)
	event := f.recorder.events[0]
	assert.Equal(t, domain.EventCreated, event.Name)
	assert.Equal(t, task.ID, event.TaskID)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "doc.pdf", event.Metadata["file_path"])
}

func TestCreateTask_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.uc.CreateTask(ctx, bob, CreateInput{Domain: "d", Reviewer: "carl"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.CreateTask(ctx, alice, CreateInput{Domain: "d", Reviewer: "ghost"})
	assert.ErrorIs(t, err, domain.ErrUnknownUser)
	assert.Equal(t, domain.ErrCodeUnknownUser, domain.CodeOf(err))

	_, err = f.uc.CreateTask(ctx, domain.Actor{Username: "nobody", Role: domain.RoleEPM}, CreateInput{Domain: "d", Reviewer: "carl"})
	assert.ErrorIs(t, err, domain.ErrUnknownUser)

	_, err = f.uc.CreateTask(ctx, alice, CreateInput{Domain: "d", Reviewer: "bob"})
	assert.ErrorIs(t, err, domain.ErrInvalidReviewer)

	_, err = f.uc.CreateTask(ctx, alice, CreateInput{Domain: "d"})
	assert.ErrorIs(t, err, domain.ErrUnknownUser)

	assert.Empty(t, f.recorder.events)
}

func TestCreateTask_RecorderFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("history offline")

	task, err := f.uc.CreateTask(context.Background(), alice, CreateInput{Domain: "d", Reviewer: "carl"})
	require.NoError(t, err)
	assert.NotZero(t, task.ID)
}

func TestListTasksAndMyTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.uc.CreateTask(ctx, alice, CreateInput{Domain: "a", Reviewer: "carl"})
	require.NoError(t, err)
	second, err := f.uc.CreateTask(ctx, alice, CreateInput{Domain: "b", Reviewer: "carl"})
	require.NoError(t, err)
	_, err = f.tasks.Claim(ctx, first.ID, "bob")
	require.NoError(t, err)

	available, err := f.uc.ListTasks(ctx, repository.TaskFilter{Available: true})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, second.ID, available[0].ID)

	created, err := f.uc.MyTasks(ctx, alice, 0, 0)
	require.NoError(t, err)
	assert.Len(t, created, 2)

	claimed, err := f.uc.MyTasks(ctx, bob, 0, 0)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, first.ID, claimed[0].ID)

	review, err := f.uc.MyTasks(ctx, carl, 0, 0)
	require.NoError(t, err)
	assert.Len(t, review, 2)

	_, err = f.uc.MyTasks(ctx, domain.Actor{Username: "x", Role: "Admin"}, 0, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetTaskAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task, err := f.uc.CreateTask(ctx, alice, CreateInput{Domain: "d", Reviewer: "carl"})
	require.NoError(t, err)
	for _, event := range f.recorder.events {
		require.NoError(t, f.events.Append(ctx, event))
	}

	got, err := f.uc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	history, err := f.uc.History(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.EventCreated, history[0].Name)

	_, err = f.uc.GetTask(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = f.uc.History(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
