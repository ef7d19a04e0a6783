package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/upkeepai/upkeep-api/internal/config"
	"github.com/upkeepai/upkeep-api/internal/events"
	"github.com/upkeepai/upkeep-api/internal/platform/gemini"
	"github.com/upkeepai/upkeep-api/internal/platform/openai"
	"github.com/upkeepai/upkeep-api/internal/platform/postgres"
	"github.com/upkeepai/upkeep-api/internal/service"
	"github.com/upkeepai/upkeep-api/internal/service/auth"
	"github.com/upkeepai/upkeep-api/internal/store"
	"github.com/upkeepai/upkeep-api/internal/task"
)

// application holds the shared application dependencies so wiring and
// cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	itemStore store.ItemStore
	taskStore store.TaskStore
	jobStore  task.JobStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	itemService *service.ItemService
	delivery    *service.TaskDeliveryService
	quota       *service.QuotaTracker

	eventEmitter events.EventEmitter
	jobRunner    *task.JobRunner
}

// newApplication wires every dependency and starts the background job
// runner, which first resubmits any generation left pending by a previous
// run.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.passwordVerifier = auth.NewBcryptVerifier()

	bcryptCost := cfg.Auth.BcryptCost
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	app.userStore = postgres.NewPostgresUserStore(db, logger, bcryptCost)
	app.itemStore = postgres.NewPostgresItemStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.jobStore = postgres.NewPostgresJobStore(db)

	generator, err := newPlanGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize plan generator: %w", err)
	}
	logger.Info("plan generator initialized", slog.String("provider", cfg.LLM.Provider))

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	app.itemService, err = service.NewItemService(db, app.itemStore, app.taskStore, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create item service: %w", err)
	}

	app.quota, err = service.NewQuotaTracker(app.taskStore, cfg.Generation.DailyTaskLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota tracker: %w", err)
	}

	app.delivery, err = service.NewTaskDeliveryService(app.itemStore, app.taskStore, cfg.Generation, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task delivery service: %w", err)
	}

	factory := task.NewPlanGenerationJobFactory(app.itemService, generator, app.quota, logger)

	app.jobRunner = task.NewJobRunner(app.jobStore, app.itemStore, factory, task.JobRunnerConfig{
		WorkerCount:        cfg.Generation.WorkerCount,
		QueueSize:          cfg.Generation.QueueSize,
		StuckItemAge:       time.Duration(cfg.Generation.StuckItemAgeMinutes) * time.Minute,
		StuckCheckInterval: time.Duration(cfg.Generation.StuckCheckIntervalMinutes) * time.Minute,
	}, logger)

	handler := task.NewGenerationEventHandler(factory, app.jobRunner, logger)
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(handler)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register generation handler")
	}

	if err := app.jobRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// newPlanGenerator selects the configured LLM backend.
func newPlanGenerator(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (task.PlanGenerator, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openai.NewGenerator(logger.With("component", "plan_generator"), cfg.LLM)
	case "gemini":
		return gemini.NewGenerator(ctx, logger.With("component", "plan_generator"), cfg.LLM)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.LLM.Provider)
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
