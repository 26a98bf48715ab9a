package app

import (
	"context"
	"fmt"
	"os"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"

	apphttp "github.com/yungbote/rollup-backend/internal/http"
	"github.com/yungbote/rollup-backend/internal/jobs/worker"
	"github.com/yungbote/rollup-backend/internal/observability"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/temporalx"
	"github.com/yungbote/rollup-backend/internal/temporalx/temporalworker"
)

type App struct {
	*Core

	Server   *apphttp.Server
	Temporal temporalsdkclient.Client

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New() (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	core, err := NewCore(log, cfg, CoreOptions{})
	if err != nil {
		log.Sync()
		return nil, err
	}

	middleware, err := wireMiddleware(log, cfg)
	if err != nil {
		core.Close()
		log.Sync()
		return nil, err
	}
	server := wireServer(log, core, wireHandlers(log, core), middleware)

	tc, err := temporalx.NewClient(log, cfg.Temporal)
	if err != nil {
		core.Close()
		log.Sync()
		return nil, fmt.Errorf("init temporal: %w", err)
	}

	return &App{
		Core:         core,
		Server:       server,
		Temporal:     tc,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the weekly scheduling: a Temporal worker plus cron workflow when Temporal is
// configured, the in-process ticker otherwise.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Temporal == nil {
		worker.NewScheduler(a.Log, a.Services.Rollups, worker.Config{
			Weekday:     a.Cfg.SchedulerWeekday,
			Interval:    a.Cfg.SchedulerInterval,
			Concurrency: a.Cfg.SchedulerConcurrency,
			Location:    a.Location,
		}).Start(ctx)
		return nil
	}

	runner, err := temporalworker.NewRunner(a.Log, a.Temporal, a.Cfg.Temporal, a.Services.Rollups, a.Cfg.SchedulerConcurrency)
	if err != nil {
		return err
	}
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start temporal worker: %w", err)
	}
	return runner.EnsureSchedule(ctx)
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Temporal != nil {
		a.Temporal.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	a.Core.Close()
	a.Log.Sync()
}
