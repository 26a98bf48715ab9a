package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/rollup-backend/internal/clients/redis"
	"github.com/yungbote/rollup-backend/internal/data/repos"
	"github.com/yungbote/rollup-backend/internal/eventsource"
	"github.com/yungbote/rollup-backend/internal/observability"
	"github.com/yungbote/rollup-backend/internal/platform/ctxutil"
	"github.com/yungbote/rollup-backend/internal/platform/dbctx"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
	"github.com/yungbote/rollup-backend/internal/rollup/categories"
	"github.com/yungbote/rollup-backend/internal/rollup/monthly"
)

// RunResult is what one weekly run stored.
type RunResult struct {
	Rollup      rollup.WeeklyRollup `json:"rollup"`
	Dropped     int                 `json:"dropped"`
	BadgeEvents int                 `json:"badgeEvents"`
}

// Publisher receives a notification after each stored rollup. Publishing is best-effort.
type Publisher interface {
	Publish(ctx context.Context, msg redis.RollupUpdated) error
}

type RollupService interface {
	Run(ctx context.Context, category, periodStart, periodEnd string) (*RunResult, error)
	RunLastWeek(ctx context.Context, category string, asOf time.Time) (*RunResult, error)
	LastWeekPeriod(asOf time.Time) (string, string)
	ListRollups(ctx context.Context, category, start, end string) ([]rollup.WeeklyRollup, error)
	Monthly(ctx context.Context, category, month, mode string) (*rollup.MonthlySummary, error)
	Categories() []string
}

type RollupServiceDeps struct {
	DB        *gorm.DB
	Log       *logger.Logger
	Registry  *categories.Registry
	Source    eventsource.Source
	Builder   *rollup.Builder
	Rollups   repos.WeeklyRollupRepo
	Badges    repos.BadgeEventRepo
	Publisher Publisher
	Metrics   *observability.Metrics
	Now       func() time.Time
}

type rollupService struct {
	db        *gorm.DB
	log       *logger.Logger
	registry  *categories.Registry
	source    eventsource.Source
	builder   *rollup.Builder
	rollups   repos.WeeklyRollupRepo
	badges    repos.BadgeEventRepo
	publisher Publisher
	metrics   *observability.Metrics
	now       func() time.Time
	tracer    trace.Tracer
}

func NewRollupService(deps RollupServiceDeps) (RollupService, error) {
	switch {
	case deps.DB == nil:
		return nil, fmt.Errorf("rollup service: db required")
	case deps.Log == nil:
		return nil, fmt.Errorf("rollup service: logger required")
	case deps.Registry == nil:
		return nil, fmt.Errorf("rollup service: category registry required")
	case deps.Source == nil:
		return nil, fmt.Errorf("rollup service: event source required")
	case deps.Rollups == nil || deps.Badges == nil:
		return nil, fmt.Errorf("rollup service: repos required")
	}
	builder := deps.Builder
	if builder == nil {
		builder = rollup.NewBuilder(nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &rollupService{
		db:        deps.DB,
		log:       deps.Log.With("service", "RollupService"),
		registry:  deps.Registry,
		source:    deps.Source,
		builder:   builder,
		rollups:   deps.Rollups,
		badges:    deps.Badges,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		now:       now,
		tracer:    otel.Tracer(observability.TracerName),
	}, nil
}

func (s *rollupService) Categories() []string { return s.registry.Names() }

// Run builds the rollup of one category for [periodStart, periodEnd] and stores it. The rollup is
// built fully in memory and written once, together with its badge events.
func (s *rollupService) Run(ctx context.Context, category, periodStart, periodEnd string) (result *RunResult, err error) {
	ctx, span := s.tracer.Start(ctx, "rollup.run", trace.WithAttributes(
		attribute.String("rollup.category", category),
		attribute.String("rollup.period_start", periodStart),
		attribute.String("rollup.period_end", periodEnd),
	))
	started := s.now()
	defer func() {
		status := "ok"
		dropped := 0
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			dropped = result.Dropped
		}
		s.metrics.ObserveRollupRun(rollup.NormalizeCategory(category), status, time.Since(started), dropped)
		span.End()
	}()

	cat, err := s.registry.Get(category)
	if err != nil {
		return nil, err
	}
	if _, _, err := calendar.ParseRange(periodStart, periodEnd); err != nil {
		return nil, err
	}

	events, err := s.source.Fetch(ctx, cat.Name, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch %s events: %w", cat.Name, err)
	}
	built, err := s.builder.Build(cat, events, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	r := built.Rollup
	if len(built.Dropped) > 0 {
		s.log.Warn("Events dropped from rollup",
			"run_id", r.RunID,
			"dropped", len(built.Dropped),
			"first_reason", built.Dropped[0].Error(),
		)
	}

	badgeEvents := rollup.BadgeEvents(cat, r, s.now())
	if err := (dbctx.Context{Ctx: ctx}).Transaction(s.db, func(dbc dbctx.Context) error {
		if err := s.rollups.Upsert(dbc, r); err != nil {
			return fmt.Errorf("upsert rollup: %w", err)
		}
		if _, err := s.badges.Append(dbc, r.RunID, badgeEvents); err != nil {
			return fmt.Errorf("append badge events: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	for _, b := range badgeEvents {
		s.metrics.IncBadgeAwarded(cat.Name, b.Badge)
	}

	span.SetAttributes(
		attribute.String("rollup.run_id", r.RunID),
		attribute.Int("rollup.score", r.Score),
		attribute.Int("rollup.dropped", len(built.Dropped)),
	)
	s.log.Info("Rollup stored", append([]interface{}{
		"run_id", r.RunID,
		"score", r.Score,
		"completion_rate", r.CompletionRate,
		"streak", r.Streak,
		"badges", len(r.Badges),
	}, ctxutil.LogFields(ctx)...)...)
	s.notify(ctx, r)

	return &RunResult{Rollup: r, Dropped: len(built.Dropped), BadgeEvents: len(badgeEvents)}, nil
}

func (s *rollupService) notify(ctx context.Context, r rollup.WeeklyRollup) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, redis.RollupUpdated{
		Event:          redis.EventRollupUpdated,
		RunID:          r.RunID,
		Category:       r.Category,
		PeriodStart:    r.PeriodStart,
		PeriodEnd:      r.PeriodEnd,
		Score:          r.Score,
		CompletionRate: r.CompletionRate,
		Badges:         r.Badges,
		PublishedAt:    s.now().UTC(),
	})
	if err != nil {
		s.metrics.IncNotifyFailure()
		s.log.Warn("Rollup notification failed", "run_id", r.RunID, "error", err)
	}
}

// RunLastWeek rolls up the seven days that end the day before asOf, in the builder's zone.
func (s *rollupService) RunLastWeek(ctx context.Context, category string, asOf time.Time) (*RunResult, error) {
	start, end := s.LastWeekPeriod(asOf)
	return s.Run(ctx, category, start, end)
}

func (s *rollupService) LastWeekPeriod(asOf time.Time) (string, string) {
	return LastWeek(asOf, s.builder.Location())
}

// LastWeek returns the seven-day period ending the day before asOf.
func LastWeek(asOf time.Time, loc *time.Location) (string, string) {
	today := calendar.DayOf(asOf, loc)
	end, _ := calendar.AddDays(today, -1)
	start, _ := calendar.AddDays(today, -7)
	return start, end
}

func (s *rollupService) ListRollups(ctx context.Context, category, start, end string) ([]rollup.WeeklyRollup, error) {
	cat, err := s.registry.Get(category)
	if err != nil {
		return nil, err
	}
	if _, _, err := calendar.ParseRange(start, end); err != nil {
		return nil, err
	}
	return s.rollups.QueryRange(dbctx.Context{Ctx: ctx}, cat.Name, start, end, repos.RangeOverlap)
}

// Monthly derives the summary of month (YYYY-MM) from the stored weekly rollups. Nothing is stored.
func (s *rollupService) Monthly(ctx context.Context, category, month, mode string) (*rollup.MonthlySummary, error) {
	ctx, span := s.tracer.Start(ctx, "rollup.monthly", trace.WithAttributes(
		attribute.String("rollup.category", category),
		attribute.String("rollup.month", month),
	))
	defer span.End()

	cat, err := s.registry.Get(category)
	if err != nil {
		return nil, err
	}
	m, err := monthly.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	monthStart, monthEnd, err := calendar.MonthBounds(month)
	if err != nil {
		return nil, err
	}
	rows, err := s.rollups.QueryRange(dbctx.Context{Ctx: ctx}, cat.Name, monthStart, monthEnd, repos.RangeOverlap)
	if err != nil {
		return nil, err
	}
	summary, err := monthly.Aggregate(cat, rows, monthStart, monthEnd, m)
	if err != nil {
		return nil, err
	}
	s.metrics.IncMonthlySummary(cat.Name, string(m))
	span.SetAttributes(attribute.Int("rollup.included", summary.RollupsIncluded))
	return &summary, nil
}
