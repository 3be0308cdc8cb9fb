package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	userUC "github.com/fastygo/taskflow/usecase/user"
)

type UserHandler struct {
	baseHandler
	uc *userUC.UseCase
}

func NewUserHandler(uc *userUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List users holding a role
// @Tags users
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	if _, ok := h.actor(ctx); !ok {
		return
	}
	role := string(ctx.QueryArgs().Peek("role"))
	if role == "" {
		role = string(domain.RoleReviewer)
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.ListByRole(stdCtx, role)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, users, transport.PageMeta{Count: len(users)})
}

// @Summary Get a user by username
// @Tags users
// @Router /api/v1/users/{username} [get]
func (h *UserHandler) GetUser(ctx *fasthttp.RequestCtx) {
	if _, ok := h.actor(ctx); !ok {
		return
	}
	username, _ := ctx.UserValue("username").(string)
	if username == "" {
		h.respondInvalid(ctx, "missing username")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.FindByUsername(stdCtx, username)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}
