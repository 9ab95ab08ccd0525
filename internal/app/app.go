// Package app initializes and orchestrates the main components of
// TaskBridge: the webhook HTTP server and the queue dispatcher.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/taskbridge/taskbridge/internal/config"
	"github.com/taskbridge/taskbridge/internal/db"
	"github.com/taskbridge/taskbridge/internal/dispatch"
	"github.com/taskbridge/taskbridge/internal/github"
	"github.com/taskbridge/taskbridge/internal/handlers"
	"github.com/taskbridge/taskbridge/internal/monitor"
	"github.com/taskbridge/taskbridge/internal/queue"
	"github.com/taskbridge/taskbridge/internal/server"
	"github.com/taskbridge/taskbridge/internal/storage"
	"github.com/taskbridge/taskbridge/internal/tasks"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *server.Server
	dispatcher *dispatch.Dispatcher
}

// NewApp sets up the application with all its dependencies. The
// returned cleanup closes the database pool and the queue transport.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, func(), error) {
	logger.Info("initializing TaskBridge",
		"scheduler_id", cfg.SchedulerID,
		"jobs_topic", cfg.TopicJobs,
		"server_port", cfg.ServerPort)

	dbConn, dbCleanup, err := db.NewDatabase(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	builds := storage.NewBuildStore(dbConn.DB)
	checks := storage.NewCheckRunStore(dbConn.DB)

	subscriber, err := queue.NewSubscriber(cfg, logger)
	if err != nil {
		dbCleanup()
		return nil, nil, err
	}
	publisher, err := queue.NewPublisher(cfg, logger)
	if err != nil {
		_ = subscriber.Close()
		dbCleanup()
		return nil, nil, err
	}

	cleanup := func() {
		closeQuietly(publisher, "publisher", logger)
		closeQuietly(subscriber, "subscriber", logger)
		dbCleanup()
	}

	deps := &handlers.Deps{
		Cfg:    cfg,
		Builds: builds,
		Checks: checks,
		GitHub: github.NewClientFactory(cfg, logger),
		Queue:  tasks.NewClient(cfg, logger),
	}

	jobHandler, err := handlers.NewJobHandler(deps, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	statusHandler, err := handlers.NewStatusHandler(deps, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	groupHandler, err := handlers.NewGroupStatusHandler(deps, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	dispatcher := dispatch.New(cfg, subscriber, jobHandler, statusHandler, groupHandler,
		monitor.New(logger), logger)
	httpServer := server.NewServer(cfg, publisher, logger)

	logger.Info("TaskBridge initialized")
	return &App{
		cfg:        cfg,
		logger:     logger,
		server:     httpServer,
		dispatcher: dispatcher,
	}, cleanup, nil
}

// Run starts the HTTP server and the dispatcher and blocks until ctx
// is cancelled or either fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return a.server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.server.Stop()
	})

	return g.Wait()
}

type closer interface {
	Close() error
}

func closeQuietly(c closer, name string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close "+name, "error", err)
	}
}
