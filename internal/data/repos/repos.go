package repos

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/rollup-backend/internal/data/repos/events"
	"github.com/yungbote/rollup-backend/internal/data/repos/rollups"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
)

type WeeklyRollupRepo = rollups.WeeklyRollupRepo
type BadgeEventRepo = rollups.BadgeEventRepo
type TrackedEventRepo = events.TrackedEventRepo

type RangeMode = rollups.RangeMode
type DeserializationWarning = rollups.DeserializationWarning

const (
	RangeOverlap = rollups.RangeOverlap
	RangeWithin  = rollups.RangeWithin
)

func NewWeeklyRollupRepo(db *gorm.DB, baseLog *logger.Logger, onWarn func(*DeserializationWarning)) WeeklyRollupRepo {
	return rollups.NewWeeklyRollupRepo(db, baseLog, onWarn)
}

func NewBadgeEventRepo(db *gorm.DB, baseLog *logger.Logger) BadgeEventRepo {
	return rollups.NewBadgeEventRepo(db, baseLog)
}

func NewTrackedEventRepo(db *gorm.DB, baseLog *logger.Logger, loc *time.Location) TrackedEventRepo {
	return events.NewTrackedEventRepo(db, baseLog, loc)
}
