package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
)

// ActorResolver maps a bearer token to the acting user and its session id.
type ActorResolver interface {
	Resolve(ctx context.Context, bearer string) (domain.Actor, string, error)
}

// JWTAuth rejects requests without a valid bearer token bound to a live session and
// stores the resolved actor on the request for the handlers.
func JWTAuth(resolver ActorResolver, timeout time.Duration, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			stdCtx, cancel := context.WithTimeout(context.Background(), timeout)
			actor, sessionID, err := resolver.Resolve(stdCtx, tokenString)
			cancel()
			if err != nil {
				if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.Error("session lookup failed", zap.Error(err))
					ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
					return
				}
				logger.Warn("invalid bearer token", zap.String("path", string(ctx.Path())))
				unauthorized(ctx, "invalid or expired token")
				return
			}

			httpcontext.SetActor(ctx, actor, sessionID)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}
