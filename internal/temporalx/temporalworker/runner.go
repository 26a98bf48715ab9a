package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/services"
	"github.com/yungbote/rollup-backend/internal/temporalx"
	"github.com/yungbote/rollup-backend/internal/temporalx/rollupwf"
)

type Runner struct {
	log         *logger.Logger
	tc          temporalsdkclient.Client
	cfg         temporalx.Config
	rollups     services.RollupService
	concurrency int
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, cfg temporalx.Config, rollups services.RollupService, concurrency int) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if rollups == nil {
		return nil, fmt.Errorf("temporal worker missing rollup service")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		log:         log.With("component", "TemporalRunner"),
		tc:          tc,
		cfg:         cfg,
		rollups:     rollups,
		concurrency: concurrency,
	}, nil
}

// Start polls the task queue until ctx is done. Startup is retried while the cluster comes up.
func (r *Runner) Start(ctx context.Context) error {
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)
	deadline := time.Now().Add(r.cfg.DialMaxWait)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) && r.cfg.AutoRegisterNamespace {
			if err := temporalx.EnsureNamespace(ctx, r.log, r.cfg); err != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", r.cfg.Namespace, "error", err)
			}
		}
		if r.cfg.DialMaxWait <= 0 || time.Now().After(deadline) {
			if errors.As(startErr, &nfe) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)
		time.Sleep(temporalx.ClampBackoff(r.cfg.Backoff, r.cfg.BackoffMax, attempt))
	}
}

func (r *Runner) newWorker() worker.Worker {
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     r.concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: r.concurrency,
	})
	acts := &rollupwf.Activities{Log: r.log, Rollups: r.rollups}

	w.RegisterWorkflowWithOptions(rollupwf.ScheduleWorkflow, workflow.RegisterOptions{Name: rollupwf.WorkflowSchedule})
	w.RegisterWorkflowWithOptions(rollupwf.WeeklyRollupWorkflow, workflow.RegisterOptions{Name: rollupwf.WorkflowWeekly})
	w.RegisterActivityWithOptions(acts.Plan, activity.RegisterOptions{Name: rollupwf.ActivityPlan})
	w.RegisterActivityWithOptions(acts.Run, activity.RegisterOptions{Name: rollupwf.ActivityRun})
	return w
}

// EnsureSchedule starts the cron workflow once. An execution that is already running is kept.
func (r *Runner) EnsureSchedule(ctx context.Context) error {
	if r.cfg.RollupCron == "" {
		r.log.Info("TEMPORAL_ROLLUP_CRON empty; weekly schedule disabled")
		return nil
	}
	_, err := r.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:                                       rollupwf.ScheduleWorkflowID,
		TaskQueue:                                r.cfg.TaskQueue,
		CronSchedule:                             r.cfg.RollupCron,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, rollupwf.WorkflowSchedule)
	var already *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &already) {
		r.log.Debug("Rollup schedule already running", "workflow_id", rollupwf.ScheduleWorkflowID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("start rollup schedule: %w", err)
	}
	r.log.Info("Rollup schedule started", "workflow_id", rollupwf.ScheduleWorkflowID, "cron", r.cfg.RollupCron)
	return nil
}

// StartRollup triggers one weekly rollup through Temporal and waits for it.
func StartRollup(ctx context.Context, tc temporalsdkclient.Client, taskQueue, category, start, end string) (rollupwf.RunOutput, error) {
	var out rollupwf.RunOutput
	we, err := tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        rollupwf.WeeklyWorkflowID(rollup.RunID(category, start, end)),
		TaskQueue: taskQueue,
	}, rollupwf.WorkflowWeekly, rollupwf.RunInput{Category: category, PeriodStart: start, PeriodEnd: end})
	if err != nil {
		return out, fmt.Errorf("start weekly rollup: %w", err)
	}
	err = we.Get(ctx, &out)
	return out, err
}
