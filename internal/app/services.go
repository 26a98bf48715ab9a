package app

import (
	"fmt"
	"time"

	"github.com/yungbote/rollup-backend/internal/eventsource"
	"github.com/yungbote/rollup-backend/internal/observability"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/categories"
	"github.com/yungbote/rollup-backend/internal/services"
	"gorm.io/gorm"
)

type Services struct {
	Rollups services.RollupService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	loc *time.Location,
	registry *categories.Registry,
	source eventsource.Source,
	reposet Repos,
	clients Clients,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")
	deps := services.RollupServiceDeps{
		DB:       db,
		Log:      log,
		Registry: registry,
		Source:   source,
		Builder:  rollup.NewBuilder(loc),
		Rollups:  reposet.WeeklyRollup,
		Badges:   reposet.BadgeEvent,
		Metrics:  metrics,
	}
	if clients.RollupBus != nil {
		deps.Publisher = clients.RollupBus
	}
	rollups, err := services.NewRollupService(deps)
	if err != nil {
		return Services{}, fmt.Errorf("init rollup service: %w", err)
	}
	return Services{Rollups: rollups}, nil
}
