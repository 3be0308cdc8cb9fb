package workflow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/password"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/sqlite"
	taskUC "github.com/fastygo/taskflow/usecase/task"
	userUC "github.com/fastygo/taskflow/usecase/user"
)

type memoryRecorder struct {
	mu     sync.Mutex
	events []domain.TaskEvent
}

func (r *memoryRecorder) RecordEvent(_ context.Context, event domain.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memoryRecorder) names() []domain.WorkflowEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.WorkflowEvent, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

type fixture struct {
	users    *userUC.UseCase
	tasks    *taskUC.UseCase
	workflow *UseCase
	repo     repository.TaskRepository
	recorder *memoryRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := sqlite.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	userRepo := sqlite.NewUserRepository(store)
	taskRepo := sqlite.NewTaskRepository(store)
	recorder := &memoryRecorder{}

	return fixture{
		users:    userUC.New(userRepo, password.NewHasher(bcrypt.MinCost), zap.NewNop()),
		tasks:    taskUC.New(taskRepo, userRepo, sqlite.NewEventRepository(store), recorder, zap.NewNop()),
		workflow: New(taskRepo, recorder, zap.NewNop()),
		repo:     taskRepo,
		recorder: recorder,
	}
}

func (f fixture) register(t *testing.T, username, role string) domain.Actor {
	t.Helper()
	user, err := f.users.Register(context.Background(), username, "pw", username+"@example.org", role)
	require.NoError(t, err)
	return domain.Actor{Username: user.Username, Role: user.Role}
}

func (f fixture) newTask(t *testing.T, creator domain.Actor, reviewer string) *domain.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), creator, taskUC.CreateInput{Domain: "X", Reviewer: reviewer})
	require.NoError(t, err)
	return task
}

func TestEndToEndRequestChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.register(t, "alice", "EPM")
	bob := f.register(t, "bob", "Reviewer")
	carl := f.register(t, "carl", "Volunteer")

	task := f.newTask(t, alice, "bob")
	assert.Equal(t, domain.StatusNotDone, task.Status)

	claimed, err := f.workflow.ClaimTask(ctx, carl, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, claimed.Status)
	assert.Equal(t, "carl", claimed.Volunteer)

	submitted, err := f.workflow.SubmitWork(ctx, carl, task.ID, "work.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, submitted.Status)
	assert.Equal(t, "work.pdf", submitted.SubmittedFilePath)

	reviewed, err := f.workflow.Review(ctx, bob, task.ID, domain.DecisionRequestChanges, "redo section 2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNeedsChanges, reviewed.Status)
	assert.Equal(t, "redo section 2", reviewed.Feedback)

	assert.Equal(t, []domain.WorkflowEvent{
		domain.EventCreated,
		domain.EventClaimed,
		domain.EventSubmitted,
		domain.EventChangesRequested,
	}, f.recorder.names())

	last := f.recorder.events[len(f.recorder.events)-1]
	assert.Equal(t, domain.StatusInProgress, last.FromStatus)
	assert.Equal(t, domain.StatusNeedsChanges, last.ToStatus)
	assert.Equal(t, "redo section 2", last.Metadata["feedback"])

	// Needs Changes has no way out.
	_, err = f.workflow.SubmitWork(ctx, carl, task.ID, "work-v2.pdf")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.workflow.Review(ctx, bob, task.ID, domain.DecisionApprove, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "EPM")
	bob := f.register(t, "bob", "Reviewer")
	carl := f.register(t, "carl", "Volunteer")

	task := f.newTask(t, alice, "bob")
	_, err := f.workflow.ClaimTask(ctx, carl, task.ID)
	require.NoError(t, err)
	_, err = f.workflow.SubmitWork(ctx, carl, task.ID, "draft.pdf")
	require.NoError(t, err)
	resubmitted, err := f.workflow.SubmitWork(ctx, carl, task.ID, "final.pdf")
	require.NoError(t, err)
	assert.Equal(t, "final.pdf", resubmitted.SubmittedFilePath)

	done, err := f.workflow.Review(ctx, bob, task.ID, domain.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, done.Status)
	assert.True(t, done.IsCompleted())

	_, err = f.workflow.Review(ctx, bob, task.ID, domain.DecisionRequestChanges, "late")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestClaimTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "EPM")
	f.register(t, "bob", "Reviewer")
	carl := f.register(t, "carl", "Volunteer")
	dave := f.register(t, "dave", "Volunteer")

	task := f.newTask(t, alice, "bob")

	_, err := f.workflow.ClaimTask(ctx, alice, task.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.workflow.ClaimTask(ctx, carl, 999)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = f.workflow.ClaimTask(ctx, carl, task.ID)
	require.NoError(t, err)

	_, err = f.workflow.ClaimTask(ctx, dave, task.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	after, err := f.repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "carl", after.Volunteer)
	assert.Equal(t, domain.StatusInProgress, after.Status)
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "EPM")
	f.register(t, "bob", "Reviewer")
	volunteers := []domain.Actor{
		f.register(t, "carl", "Volunteer"),
		f.register(t, "dave", "Volunteer"),
		f.register(t, "erin", "Volunteer"),
	}
	task := f.newTask(t, alice, "bob")

	var wg sync.WaitGroup
	errs := make([]error, len(volunteers))
	for i, v := range volunteers {
		wg.Add(1)
		go func(i int, v domain.Actor) {
			defer wg.Done()
			_, errs[i] = f.workflow.ClaimTask(ctx, v, task.ID)
		}(i, v)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	}
	assert.Equal(t, 1, wins)
}

func TestSubmitWork_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "EPM")
	f.register(t, "bob", "Reviewer")
	carl := f.register(t, "carl", "Volunteer")
	dave := f.register(t, "dave", "Volunteer")

	task := f.newTask(t, alice, "bob")

	_, err := f.workflow.SubmitWork(ctx, carl, task.ID, "work.pdf")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.workflow.ClaimTask(ctx, carl, task.ID)
	require.NoError(t, err)

	_, err = f.workflow.SubmitWork(ctx, dave, task.ID, "work.pdf")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.workflow.SubmitWork(ctx, carl, task.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = f.workflow.SubmitWork(ctx, carl, 999, "work.pdf")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestReview_Guards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "EPM")
	bob := f.register(t, "bob", "Reviewer")
	zoe := f.register(t, "zoe", "Reviewer")
	carl := f.register(t, "carl", "Volunteer")

	task := f.newTask(t, alice, "bob")
	_, err := f.workflow.ClaimTask(ctx, carl, task.ID)
	require.NoError(t, err)

	_, err = f.workflow.Review(ctx, bob, task.ID, domain.DecisionApprove, "")
	assert.ErrorIs(t, err, domain.ErrNotSubmitted)

	_, err = f.workflow.SubmitWork(ctx, carl, task.ID, "work.pdf")
	require.NoError(t, err)

	_, err = f.workflow.Review(ctx, zoe, task.ID, domain.DecisionApprove, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.workflow.Review(ctx, carl, task.ID, domain.DecisionApprove, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.workflow.Review(ctx, bob, task.ID, domain.Decision("maybe"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidDecision)

	unchanged, err := f.repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, unchanged.Status)
	assert.Empty(t, unchanged.Feedback)
}
