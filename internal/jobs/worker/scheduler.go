package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/services"
)

type Config struct {
	// Weekday is the local day on which last week's rollups are built.
	Weekday     time.Weekday
	Interval    time.Duration
	Concurrency int
	Location    *time.Location
}

// Scheduler is the in-process fallback for the Temporal cron: it polls on a ticker and, on the
// configured weekday, runs every category once for the week that just ended.
type Scheduler struct {
	log     *logger.Logger
	rollups services.RollupService
	cfg     Config
	now     func() time.Time

	mu       sync.Mutex
	lastDone map[string]string
}

func NewScheduler(baseLog *logger.Logger, rollups services.RollupService, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		log:      baseLog.With("component", "RollupScheduler"),
		rollups:  rollups,
		cfg:      cfg,
		now:      time.Now,
		lastDone: map[string]string{},
	}
}

// Start runs the ticker loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("Starting rollup scheduler", "weekday", s.cfg.Weekday.String(), "interval", s.cfg.Interval.String())
	go s.runLoop(ctx)
}

func (s *Scheduler) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.Tick(ctx); err != nil {
			s.log.Warn("Scheduled rollups failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.log.Info("Rollup scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// Tick runs the categories that are due and returns how many were run. Categories whose last
// attempt failed stay due and are retried on the next tick.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	now := s.now()
	if now.In(s.cfg.Location).Weekday() != s.cfg.Weekday {
		return 0, nil
	}
	start, _ := s.rollups.LastWeekPeriod(now)

	var due []string
	s.mu.Lock()
	for _, cat := range s.rollups.Categories() {
		if s.lastDone[cat] != start {
			due = append(due, cat)
		}
	}
	s.mu.Unlock()
	if len(due) == 0 {
		return 0, nil
	}

	// Categories are independent: one failure must not cancel the others.
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, cat := range due {
		cat := cat
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("Rollup run panic", "category", cat, "panic", r)
					err = fmt.Errorf("rollup %s: panic: %v", cat, r)
				}
			}()
			res, err := s.rollups.RunLastWeek(ctx, cat, now)
			if err != nil {
				return fmt.Errorf("rollup %s: %w", cat, err)
			}
			s.mu.Lock()
			s.lastDone[cat] = start
			s.mu.Unlock()
			s.log.Info("Scheduled rollup done", "run_id", res.Rollup.RunID, "dropped", res.Dropped)
			return nil
		})
	}
	return len(due), g.Wait()
}
