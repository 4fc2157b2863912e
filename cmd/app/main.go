package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/config"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/server"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/internal/worker"
	"github.com/BuzzLyutic/taskboard/migrations"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Подключаем логгер
	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Подключаем БД
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to Database", zap.Error(err)) // Дальнейшая работа теряет смысл
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping the Database", zap.Error(err))
	}
	logger.Info("Successfully connected to the Database!")

	if cfg.AutoMigrate {
		if err := migrations.Apply(ctx, pool); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	var boards repo.BoardRepository = repo.NewBoardRepo(pool)
	var tasks repo.TaskRepository = repo.NewTaskRepo(pool)
	users := repo.NewUserRepo(pool)

	// Кэш списков включается только с REDIS_URL
	if rdb := newRedis(ctx, cfg.RedisURL, logger); rdb != nil {
		defer rdb.Close()
		cache := repo.NewCache(rdb, cfg.CacheTTL)
		boards = repo.NewCachedBoardRepo(boards, cache)
		tasks = repo.NewCachedTaskRepo(tasks, cache)
	}

	authSvc := service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL)
	router := server.New(server.Deps{
		Auth:           authSvc,
		Boards:         service.NewBoardService(boards, tasks),
		Tasks:          service.NewTaskService(tasks, boards, logger),
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	workers := worker.NewPool(tasks, logger, cfg.WorkerCount, cfg.ReconcileInterval, cfg.ReconcileBatch)
	workers.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	workers.Stop()
	logger.Info("Server stopped successfully!")
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == config.EnvLocal {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	return logger
}

func newRedis(ctx context.Context, url string, logger *zap.Logger) *redis.Client {
	if url == "" {
		logger.Info("Redis cache disabled")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Fatal("Invalid REDIS_URL", zap.Error(err))
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, cache will fall back to the database", zap.Error(err))
	}
	return rdb
}
