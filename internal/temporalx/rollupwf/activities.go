package rollupwf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
	"github.com/yungbote/rollup-backend/internal/services"
)

type Activities struct {
	Log     *logger.Logger
	Rollups services.RollupService
}

// Plan resolves the period that ended the day before asOf and the categories to roll up.
func (a *Activities) Plan(ctx context.Context, asOf time.Time) (Plan, error) {
	if a == nil || a.Rollups == nil {
		return Plan{}, fmt.Errorf("rollupwf: activity not configured")
	}
	start, end := a.Rollups.LastWeekPeriod(asOf)
	return Plan{PeriodStart: start, PeriodEnd: end, Categories: a.Rollups.Categories()}, nil
}

// Run stores one weekly rollup. Bad input fails without retries; anything else is retried by the
// workflow's policy.
func (a *Activities) Run(ctx context.Context, in RunInput) (RunOutput, error) {
	if a == nil || a.Rollups == nil {
		return RunOutput{}, fmt.Errorf("rollupwf: activity not configured")
	}
	if a.Log != nil {
		info := activity.GetInfo(ctx)
		a.Log.Debug("Rollup activity", "category", in.Category, "period_start", in.PeriodStart, "attempt", info.Attempt)
	}
	res, err := a.Rollups.Run(ctx, in.Category, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return RunOutput{}, classify(err)
	}
	return RunOutput{
		RunID:       res.Rollup.RunID,
		Score:       res.Rollup.Score,
		Dropped:     res.Dropped,
		BadgeEvents: res.BadgeEvents,
	}, nil
}

func classify(err error) error {
	var rangeErr *calendar.InvalidRangeError
	switch {
	case errors.As(err, &rangeErr):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidRange, err)
	case errors.Is(err, errs.ErrUnknownCategory):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeUnknownCategory, err)
	default:
		return err
	}
}
