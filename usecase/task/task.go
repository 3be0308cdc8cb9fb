package task

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/usecase"
)

// CreateInput describes a task posted by an EPM.
type CreateInput struct {
	Domain      string
	Description string
	FilePath    string
	Reviewer    string
}

type UseCase struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	events   repository.EventRepository
	recorder usecase.EventRecorder
	logger   *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	events repository.EventRepository,
	recorder usecase.EventRecorder,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		users:    users,
		events:   events,
		recorder: recorder,
		logger:   logger,
	}
}

// CreateTask stores a new Not Done task created by actor and assigned to in.Reviewer.
func (uc *UseCase) CreateTask(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Task, error) {
	if !actor.Role.Is(domain.RoleEPM) {
		return nil, domain.ErrForbidden
	}

	creator, err := uc.resolve(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	reviewerName := strings.TrimSpace(in.Reviewer)
	if reviewerName == "" {
		return nil, domain.ErrUnknownUser
	}
	reviewer, err := uc.resolve(ctx, reviewerName)
	if err != nil {
		return nil, err
	}
	if !reviewer.Role.Is(domain.RoleReviewer) {
		return nil, domain.ErrInvalidReviewer
	}

	created, err := uc.tasks.Create(ctx, &domain.Task{
		Domain:      strings.TrimSpace(in.Domain),
		Description: in.Description,
		FilePath:    strings.TrimSpace(in.FilePath),
		Status:      domain.StatusNotDone,
		Creator:     creator.Username,
		Reviewer:    reviewer.Username,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("task created",
		zap.Int64("task_id", created.ID),
		zap.String("creator", created.Creator),
		zap.String("reviewer", created.Reviewer))
	usecase.Record(ctx, uc.recorder, uc.logger, domain.TaskEvent{
		TaskID:   created.ID,
		Name:     domain.EventCreated,
		Actor:    creator.Username,
		ToStatus: created.Status,
		Metadata: metadata("file_path", created.FilePath),
	})
	return created, nil
}

func (uc *UseCase) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

// MyTasks lists the tasks related to actor through its role: created, claimed or under review.
func (uc *UseCase) MyTasks(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Task, error) {
	filter := repository.TaskFilter{Limit: limit, Offset: offset}
	switch {
	case actor.Role.Is(domain.RoleEPM):
		filter.Creator = actor.Username
	case actor.Role.Is(domain.RoleVolunteer):
		filter.Volunteer = actor.Username
	case actor.Role.Is(domain.RoleReviewer):
		filter.Reviewer = actor.Username
	default:
		return nil, domain.ErrForbidden
	}
	return uc.tasks.List(ctx, filter)
}

// History returns the recorded transitions of a task, oldest first.
func (uc *UseCase) History(ctx context.Context, id int64) ([]domain.TaskEvent, error) {
	if _, err := uc.tasks.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return uc.events.ListByTask(ctx, id)
}

func (uc *UseCase) resolve(ctx context.Context, username string) (*domain.User, error) {
	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.WrapError(domain.ErrCodeUnknownUser, "unknown user "+username, domain.ErrUnknownUser)
		}
		return nil, err
	}
	return user, nil
}

func metadata(key, value string) map[string]string {
	if value == "" {
		return nil
	}
	return map[string]string{key: value}
}
