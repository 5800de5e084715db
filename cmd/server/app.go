package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reelforge/reelforge-api/internal/api"
	"github.com/reelforge/reelforge-api/internal/config"
	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/pipeline"
	"github.com/reelforge/reelforge-api/internal/platform/ffmpeg"
	"github.com/reelforge/reelforge-api/internal/platform/gemini"
	"github.com/reelforge/reelforge-api/internal/platform/logger"
	"github.com/reelforge/reelforge-api/internal/platform/postgres"
	"github.com/reelforge/reelforge-api/internal/platform/volc"
	"github.com/reelforge/reelforge-api/internal/supervise"
	"github.com/reelforge/reelforge-api/internal/task"
)

// application holds the fully wired server: configuration, shared
// infrastructure and the task runner behind the HTTP surface.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	runner *task.Runner
	router http.Handler
}

// buildApplication loads configuration and wires every component of the
// service. Nothing is started yet; run owns the lifecycle.
func buildApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := openDatabase(ctx, cfg.Database, appLogger)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db, appLogger); err != nil {
		_ = db.Close()
		return nil, err
	}

	taskStore := postgres.NewTaskStore(db)
	sceneStore := postgres.NewSceneStore(db)
	recordStore := postgres.NewCallRecordStore(db)

	analyzer, err := gemini.NewAnalyzer(ctx, appLogger, cfg.LLM)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create script analyzer: %w", err)
	}
	rewriter := gemini.NewRewriter(analyzer)

	mediaClient, err := volc.NewClient(cfg.Media, cfg.Storage, appLogger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create media client: %w", err)
	}

	recorder := supervise.NewRecorder(recordStore, appLogger)
	caller := supervise.NewCaller(appLogger, recorder, rewriter, supervise.CallerConfig{
		PolicyRetryLimit: cfg.Media.PolicyRetryLimit,
	})

	policy := supervise.PollPolicy{
		Interval:       cfg.Media.PollInterval,
		QueuedInterval: cfg.Media.QueuedInterval,
		MaxAttempts:    cfg.Media.PollMaxAttempts,
	}

	docToVideo := pipeline.NewDocumentToVideo(
		taskStore,
		sceneStore,
		&pipeline.FileSource{BaseDir: "."},
		analyzer,
		caller,
		volc.NewSpeechOperation(mediaClient),
		volc.NewImageOperation(mediaClient),
		volc.NewVideoOperation(mediaClient),
		ffmpeg.NewComposer(cfg.Storage, appLogger),
		pipeline.PollPolicies{Speech: policy, Image: policy, Video: policy},
		appLogger,
	)

	queue := task.NewQueue(cfg.Scheduler.QueueSize, appLogger)

	registry := prometheus.NewRegistry()
	metrics := task.NewMetrics(registry, func() float64 {
		return float64(queue.Len())
	})

	runner := task.NewRunner(
		taskStore,
		queue,
		map[string]task.Pipeline{domain.TaskKindDocumentToVideo: docToVideo},
		cfg.Scheduler,
		appLogger,
		metrics,
	)

	handler := api.NewTaskHandler(runner, taskStore, recordStore, appLogger)

	return &application{
		config: cfg,
		logger: appLogger,
		db:     db,
		runner: runner,
		router: api.NewRouter(handler, registry),
	}, nil
}

// run starts the task runner and serves HTTP until a shutdown signal
// arrives, then drains both in order: no new requests, then no workers.
func (app *application) run() error {
	if err := app.runner.Start(); err != nil {
		app.cleanup()
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	err := app.startHTTPServer()

	app.runner.Stop()
	app.cleanup()
	return err
}

func (app *application) cleanup() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}
