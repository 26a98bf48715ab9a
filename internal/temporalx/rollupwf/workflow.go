package rollupwf

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/rollup-backend/internal/rollup"
)

// ScheduleWorkflow runs on a cron. Each firing plans last week's period and starts one
// WeeklyRollupWorkflow per category; categories succeed or fail independently.
func ScheduleWorkflow(ctx workflow.Context) error {
	logger := workflow.GetLogger(ctx)

	planCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})
	var plan Plan
	if err := workflow.ExecuteActivity(planCtx, ActivityPlan, workflow.Now(ctx)).Get(ctx, &plan); err != nil {
		return err
	}

	type pending struct {
		category string
		future   workflow.ChildWorkflowFuture
	}
	children := make([]pending, 0, len(plan.Categories))
	for _, cat := range plan.Categories {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: WeeklyWorkflowID(rollup.RunID(cat, plan.PeriodStart, plan.PeriodEnd)),
		})
		in := RunInput{Category: cat, PeriodStart: plan.PeriodStart, PeriodEnd: plan.PeriodEnd}
		children = append(children, pending{category: cat, future: workflow.ExecuteChildWorkflow(childCtx, WorkflowWeekly, in)})
	}

	var failed []string
	for _, c := range children {
		var out RunOutput
		if err := c.future.Get(ctx, &out); err != nil {
			logger.Error("Weekly rollup failed", "category", c.category, "error", err)
			failed = append(failed, c.category)
			continue
		}
		logger.Info("Weekly rollup stored", "run_id", out.RunID, "score", out.Score)
	}
	if len(failed) > 0 {
		return fmt.Errorf("weekly rollups failed for %s (%s..%s)", strings.Join(failed, ","), plan.PeriodStart, plan.PeriodEnd)
	}
	return nil
}

// WeeklyRollupWorkflow stores one category's rollup for one period.
func WeeklyRollupWorkflow(ctx workflow.Context, in RunInput) (RunOutput, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        5 * time.Second,
			BackoffCoefficient:     2,
			MaximumInterval:        5 * time.Minute,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{errTypeInvalidRange, errTypeUnknownCategory},
		},
	})
	var out RunOutput
	err := workflow.ExecuteActivity(ctx, ActivityRun, in).Get(ctx, &out)
	return out, err
}
