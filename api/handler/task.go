package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/repository"
	taskUC "github.com/fastygo/taskflow/usecase/task"
	workflowUC "github.com/fastygo/taskflow/usecase/workflow"
)

type TaskHandler struct {
	baseHandler
	uc       *taskUC.UseCase
	workflow *workflowUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, workflow *workflowUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		workflow:    workflow,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	if _, ok := h.actor(ctx); !ok {
		return
	}

	args := ctx.QueryArgs()
	available, _ := strconv.ParseBool(string(args.Peek("available")))
	filter := repository.TaskFilter{
		Available: available,
		Creator:   string(args.Peek("creator")),
		Reviewer:  string(args.Peek("reviewer")),
		Volunteer: string(args.Peek("volunteer")),
		Status:    domain.TaskStatus(args.Peek("status")),
		Limit:     parseInt(string(args.Peek("limit")), 50),
		Offset:    parseInt(string(args.Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, filter)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, tasks, transport.PageMeta{Limit: filter.Limit, Offset: filter.Offset, Count: len(tasks)})
}

// @Summary List the caller's tasks
// @Tags tasks
// @Router /api/v1/me/tasks [get]
func (h *TaskHandler) GetMyTasks(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 50)
	offset := parseInt(string(ctx.QueryArgs().Peek("offset")), 0)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.MyTasks(stdCtx, actor, limit, offset)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, tasks, transport.PageMeta{Limit: limit, Offset: offset, Count: len(tasks)})
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	if _, ok := h.actor(ctx); !ok {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Task history
// @Tags tasks
// @Router /api/v1/tasks/{id}/events [get]
func (h *TaskHandler) GetTaskEvents(ctx *fasthttp.RequestCtx) {
	if _, ok := h.actor(ctx); !ok {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.uc.History(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, events, transport.PageMeta{Count: len(events)})
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	var req transport.CreateTaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, actor, taskUC.CreateInput{
		Domain:      req.Domain,
		Description: req.Description,
		FilePath:    req.FilePath,
		Reviewer:    req.Reviewer,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Claim task
// @Tags workflow
// @Router /api/v1/tasks/{id}/claim [post]
func (h *TaskHandler) ClaimTask(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.workflow.ClaimTask(stdCtx, actor, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Submit work
// @Tags workflow
// @Router /api/v1/tasks/{id}/submission [post]
func (h *TaskHandler) SubmitWork(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	var req transport.SubmitWorkRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.workflow.SubmitWork(stdCtx, actor, id, req.FilePath)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Review submitted work
// @Tags workflow
// @Router /api/v1/tasks/{id}/review [post]
func (h *TaskHandler) ReviewTask(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.taskID(ctx)
	if !ok {
		return
	}

	var req transport.ReviewRequest
	if !h.decode(ctx, &req) {
		return
	}
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		h.respondInvalid(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.workflow.Review(stdCtx, actor, id, decision, req.Feedback)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}
