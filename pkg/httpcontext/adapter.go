package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskflow/domain"
	appLogger "github.com/fastygo/taskflow/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyActor      Key = "actor"
	KeySessionID  Key = "session_id"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with
// request metadata and the authenticated actor, when the middleware set one.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if actor, ok := ActorFrom(ctx); ok {
		stdCtx = context.WithValue(stdCtx, KeyActor, actor)
	}

	return stdCtx, cancel
}

// SetActor stores the authenticated actor and its session on the request.
func SetActor(ctx *fasthttp.RequestCtx, actor domain.Actor, sessionID string) {
	ctx.SetUserValue(string(KeyActor), actor)
	ctx.SetUserValue(string(KeySessionID), sessionID)
}

// ActorFrom returns the actor stored by SetActor.
func ActorFrom(ctx *fasthttp.RequestCtx) (domain.Actor, bool) {
	actor, ok := ctx.UserValue(string(KeyActor)).(domain.Actor)
	return actor, ok && actor.Valid()
}

// SessionIDFrom returns the session stored by SetActor.
func SessionIDFrom(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(string(KeySessionID)).(string)
	return id
}

func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if header := string(ctx.Request.Header.Peek("X-Request-ID")); strings.TrimSpace(header) != "" {
		return header
	}
	return uuid.NewString()
}
