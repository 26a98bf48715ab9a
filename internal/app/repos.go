package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/rollup-backend/internal/data/repos"
	"github.com/yungbote/rollup-backend/internal/observability"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
)

type Repos struct {
	WeeklyRollup repos.WeeklyRollupRepo
	BadgeEvent   repos.BadgeEventRepo
	TrackedEvent repos.TrackedEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, loc *time.Location, metrics *observability.Metrics) Repos {
	log.Info("Wiring repos...")
	onWarn := func(w *repos.DeserializationWarning) {
		metrics.IncDeserializationWarning(w.Column)
	}
	return Repos{
		WeeklyRollup: repos.NewWeeklyRollupRepo(db, log, onWarn),
		BadgeEvent:   repos.NewBadgeEventRepo(db, log),
		TrackedEvent: repos.NewTrackedEventRepo(db, log, loc),
	}
}
