package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/internal/config"
	"github.com/fastygo/taskflow/internal/infrastructure/buffer"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskflow/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskflow/internal/infrastructure/redis"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/internal/router"
	"github.com/fastygo/taskflow/internal/services"
	"github.com/fastygo/taskflow/internal/services/lifecycle"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/pkg/logger"
	"github.com/fastygo/taskflow/pkg/password"
	"github.com/fastygo/taskflow/pkg/token"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/postgres"
	redisRepo "github.com/fastygo/taskflow/repository/redis"
	"github.com/fastygo/taskflow/repository/sqlite"
	authUC "github.com/fastygo/taskflow/usecase/auth"
	taskUC "github.com/fastygo/taskflow/usecase/task"
	userUC "github.com/fastygo/taskflow/usecase/user"
	workflowUC "github.com/fastygo/taskflow/usecase/workflow"
)

type repositories struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	events repository.EventRepository
	ping   monitor.PingFunc
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Name:     cfg.AppName,
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	repos := openStore(appCtx, cfg, manager, zapLogger)

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Auth.SessionTTL)

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "buffer", cfg.Buffer.MaxSize)
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.RegisterCloser("buffer", bufferStore)

	mon := monitor.New(repos.ping, redisInfra.Ping(redisClient), bufferStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		repos.events,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  cfg.Buffer.Retention,
		},
	)
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	bufferBridge := services.NewBufferBridge(bufferProcessor)

	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	userUseCase := userUC.New(repos.users, hasher, zapLogger)
	taskUseCase := taskUC.New(repos.tasks, repos.users, repos.events, bufferBridge, zapLogger)
	workflowUseCase := workflowUC.New(repos.tasks, bufferBridge, zapLogger)
	authUseCase := authUC.New(userUseCase, sessionRepo, tokens, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, userUseCase, ctxAdapter, zapLogger, cfg.Auth.SessionTTL),
		User:   apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, workflowUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(authUseCase, cfg.Context.RequestTimeout, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("db_driver", cfg.Database.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) repositories {
	if cfg.Database.Driver == config.DriverSQLite {
		store, err := sqlite.Open(cfg.Database.SQLitePath, zapLogger)
		if err != nil {
			zapLogger.Fatal("sqlite open failed", zap.Error(err))
		}
		manager.RegisterCloser("sqlite", store)
		return repositories{
			users:  sqlite.NewUserRepository(store),
			tasks:  sqlite.NewTaskRepository(store),
			events: sqlite.NewEventRepository(store),
			ping:   store.Ping,
		}
	}

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}
	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})
	return repositories{
		users:  postgres.NewUserRepository(pool),
		tasks:  postgres.NewTaskRepository(pool),
		events: postgres.NewEventRepository(pool),
		ping:   pool.Ping,
	}
}
