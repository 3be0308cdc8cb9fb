package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskflow/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	User   *apiHandler.UserHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/signup", handlers.Auth.SignUp)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	// Protected routes
	r.GET("/api/v1/users", authMiddleware(handlers.User.ListUsers))
	r.GET("/api/v1/users/{username}", authMiddleware(handlers.User.GetUser))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/me/tasks", authMiddleware(handlers.Task.GetMyTasks))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.GET("/api/v1/tasks/{id}/events", authMiddleware(handlers.Task.GetTaskEvents))
	r.POST("/api/v1/tasks/{id}/claim", authMiddleware(handlers.Task.ClaimTask))
	r.POST("/api/v1/tasks/{id}/submission", authMiddleware(handlers.Task.SubmitWork))
	r.POST("/api/v1/tasks/{id}/review", authMiddleware(handlers.Task.ReviewTask))

	return r
}
