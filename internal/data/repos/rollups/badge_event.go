package rollups

import (
	"gorm.io/gorm"

	types "github.com/yungbote/rollup-backend/internal/domain"
	"github.com/yungbote/rollup-backend/internal/platform/dbctx"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/rollup"
)

type BadgeEventRepo interface {
	Append(dbc dbctx.Context, runID string, events []rollup.BadgeEvent) (int, error)
	ListByPeriod(dbc dbctx.Context, category, periodStart string) ([]rollup.BadgeEvent, error)
}

type badgeEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeEventRepo(db *gorm.DB, baseLog *logger.Logger) BadgeEventRepo {
	return &badgeEventRepo{
		db:  db,
		log: baseLog.With("repo", "BadgeEventRepo"),
	}
}

// Append inserts without any dedupe; replaying a period appends the awards again.
func (r *badgeEventRepo) Append(dbc dbctx.Context, runID string, events []rollup.BadgeEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	rows := make([]*types.BadgeEvent, 0, len(events))
	for _, e := range events {
		rows = append(rows, &types.BadgeEvent{
			RunID:       runID,
			Category:    rollup.NormalizeCategory(e.Category),
			Badge:       e.Badge,
			PeriodStart: e.PeriodStart,
			PeriodEnd:   e.PeriodEnd,
			AwardedAt:   e.AwardedAt.UTC(),
			Reason:      e.Reason,
		})
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *badgeEventRepo) ListByPeriod(dbc dbctx.Context, category, periodStart string) ([]rollup.BadgeEvent, error) {
	var rows []*types.BadgeEvent
	err := dbc.DB(r.db).
		Where("category = ? AND period_start = ?", rollup.NormalizeCategory(category), periodStart).
		Order("awarded_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]rollup.BadgeEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, rollup.BadgeEvent{
			Category:    row.Category,
			Badge:       row.Badge,
			PeriodStart: row.PeriodStart,
			PeriodEnd:   row.PeriodEnd,
			AwardedAt:   row.AwardedAt,
			Reason:      row.Reason,
		})
	}
	return out, nil
}
