package workflow

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/usecase"
)

// UseCase drives the volunteer and reviewer transitions of a task. Each operation
// checks the guard against the current row, then applies a conditional write so a
// concurrent change between the two cannot slip through.
type UseCase struct {
	tasks    repository.TaskRepository
	recorder usecase.EventRecorder
	logger   *zap.Logger
}

func New(tasks repository.TaskRepository, recorder usecase.EventRecorder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		recorder: recorder,
		logger:   logger,
	}
}

// ClaimTask assigns an unclaimed task to the acting volunteer and starts work on it.
func (uc *UseCase) ClaimTask(ctx context.Context, actor domain.Actor, taskID int64) (*domain.Task, error) {
	if !actor.Role.Is(domain.RoleVolunteer) {
		return nil, domain.ErrForbidden
	}

	guard := func(t *domain.Task) error { return t.CanClaim() }
	before, err := uc.check(ctx, taskID, guard)
	if err != nil {
		return nil, err
	}

	updated, err := uc.tasks.Claim(ctx, taskID, actor.Username)
	if err != nil {
		return nil, uc.conflict(ctx, taskID, guard, err)
	}

	uc.logger.Info("task claimed", zap.Int64("task_id", taskID), zap.String("volunteer", actor.Username))
	usecase.Record(ctx, uc.recorder, uc.logger, domain.TaskEvent{
		TaskID:     taskID,
		Name:       domain.EventClaimed,
		Actor:      actor.Username,
		FromStatus: before.Status,
		ToStatus:   updated.Status,
	})
	return updated, nil
}

// SubmitWork records the file delivered by the task's volunteer. The status stays In Progress.
func (uc *UseCase) SubmitWork(ctx context.Context, actor domain.Actor, taskID int64, file string) (*domain.Task, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		return nil, domain.ErrInvalidPayload
	}

	guard := func(t *domain.Task) error { return t.CanSubmit(actor) }
	before, err := uc.check(ctx, taskID, guard)
	if err != nil {
		return nil, err
	}

	updated, err := uc.tasks.Submit(ctx, taskID, actor.Username, file)
	if err != nil {
		return nil, uc.conflict(ctx, taskID, guard, err)
	}

	uc.logger.Info("work submitted", zap.Int64("task_id", taskID), zap.String("file", file))
	usecase.Record(ctx, uc.recorder, uc.logger, domain.TaskEvent{
		TaskID:     taskID,
		Name:       domain.EventSubmitted,
		Actor:      actor.Username,
		FromStatus: before.Status,
		ToStatus:   updated.Status,
		Metadata:   map[string]string{"submitted_file_path": file},
	})
	return updated, nil
}

// Review stores the reviewer's feedback and closes the task as Done or Needs Changes.
func (uc *UseCase) Review(ctx context.Context, actor domain.Actor, taskID int64, decision domain.Decision, feedback string) (*domain.Task, error) {
	if decision != domain.DecisionApprove && decision != domain.DecisionRequestChanges {
		return nil, domain.ErrInvalidDecision
	}
	if !actor.Role.Is(domain.RoleReviewer) {
		return nil, domain.ErrForbidden
	}

	guard := func(t *domain.Task) error { return t.CanReview(actor, decision) }
	before, err := uc.check(ctx, taskID, guard)
	if err != nil {
		return nil, err
	}

	next, err := domain.Transition(before.Status, decision.Event())
	if err != nil {
		return nil, err
	}

	updated, err := uc.tasks.Review(ctx, taskID, actor.Username, next, feedback)
	if err != nil {
		return nil, uc.conflict(ctx, taskID, guard, err)
	}

	uc.logger.Info("task reviewed",
		zap.Int64("task_id", taskID),
		zap.String("reviewer", actor.Username),
		zap.String("status", string(updated.Status)))

	var meta map[string]string
	if feedback != "" {
		meta = map[string]string{"feedback": feedback}
	}
	usecase.Record(ctx, uc.recorder, uc.logger, domain.TaskEvent{
		TaskID:     taskID,
		Name:       decision.Event(),
		Actor:      actor.Username,
		FromStatus: before.Status,
		ToStatus:   updated.Status,
		Metadata:   meta,
	})
	return updated, nil
}

func (uc *UseCase) check(ctx context.Context, taskID int64, guard func(*domain.Task) error) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := guard(task); err != nil {
		return nil, err
	}
	return task, nil
}

// conflict explains a rejected conditional write by re-evaluating the guard on the current row.
func (uc *UseCase) conflict(ctx context.Context, taskID int64, guard func(*domain.Task) error, writeErr error) error {
	if !errors.Is(writeErr, domain.ErrStaleTask) {
		return writeErr
	}
	if _, err := uc.check(ctx, taskID, guard); err != nil {
		uc.logger.Debug("guarded write lost a race", zap.Int64("task_id", taskID), zap.Error(err))
		return err
	}
	return writeErr
}
