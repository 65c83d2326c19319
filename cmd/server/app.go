package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tessellate-ai/extract-api/internal/admission"
	"github.com/tessellate-ai/extract-api/internal/config"
	"github.com/tessellate-ai/extract-api/internal/extract"
	"github.com/tessellate-ai/extract-api/internal/extract/normalize"
	"github.com/tessellate-ai/extract-api/internal/platform/postgres"
	"github.com/tessellate-ai/extract-api/internal/platform/vlm"
	"github.com/tessellate-ai/extract-api/internal/scheduler"
	"github.com/tessellate-ai/extract-api/internal/service"
	"github.com/tessellate-ai/extract-api/internal/service/auth"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger

	db          *sql.DB
	jwtService  auth.JWTService
	taskService service.TaskService
	scheduler   *scheduler.Scheduler
}

// newApplication wires every component of the service: storage,
// migrations, the model invoker, the worker pool, and the service
// layer. The scheduler is created but not started; run starts it.
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	log := slog.Default()

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := migrateUp(db, log); err != nil {
		return nil, err
	}

	taskStore := postgres.NewPostgresTaskStore(db, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	invoker, err := vlm.NewGeminiInvoker(ctx, log, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create model invoker: %w", err)
	}

	worker, err := extract.NewWorker(
		taskStore,
		invoker,
		normalize.New(),
		extract.NewRetryPolicy(cfg.Worker.MaxAttempts, cfg.Worker.RetryBaseDelay),
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	queue, err := setupQueue(cfg, log)
	if err != nil {
		return nil, err
	}

	sched, err := scheduler.New(queue, worker, taskStore, scheduler.Config{
		MaxConcurrent: cfg.Worker.MaxConcurrent,
		QueueSize:     cfg.Worker.QueueSize,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	validator := admission.NewValidator(admission.Limits{
		MaxFileBytes: cfg.Admission.MaxSizeBytes,
		MaxPages:     cfg.Admission.MaxPages,
	})

	taskService, err := service.NewTaskService(validator, taskStore, sched, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	return &application{
		config:      cfg,
		logger:      log,
		db:          db,
		jwtService:  jwtService,
		taskService: taskService,
		scheduler:   sched,
	}, nil
}

// setupQueue builds the pending queue from configuration. The memory
// backend loses queue entries on restart; durable task records plus
// startup recovery compensate. The redis backend keeps the queue
// itself across restarts.
func setupQueue(cfg *config.Config, log *slog.Logger) (scheduler.Queue, error) {
	switch cfg.Worker.QueueBackend {
	case "redis":
		queue, err := scheduler.NewRedisQueue(
			cfg.Worker.RedisAddr,
			cfg.Worker.RedisPassword,
			cfg.Worker.RedisDB,
			cfg.Worker.QueueSize,
			log,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis queue: %w", err)
		}
		return queue, nil
	case "memory":
		return scheduler.NewMemoryQueue(cfg.Worker.QueueSize, log), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Worker.QueueBackend)
	}
}

// run starts the scheduler (including startup recovery) and then serves
// HTTP until a shutdown signal arrives.
func (app *application) run(ctx context.Context) error {
	if err := app.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases application resources in reverse dependency order.
// Stopping the scheduler first lets in-flight tasks record their
// terminal state before the database connection closes.
func (app *application) cleanup() {
	app.scheduler.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", slog.String("error", err.Error()))
	}
}
