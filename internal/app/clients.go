package app

import (
	"fmt"

	"github.com/yungbote/rollup-backend/internal/clients/redis"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
)

type Clients struct {
	RollupBus redis.RollupBus
}

// wireClients connects the optional collaborators. Redis is skipped when REDIS_ADDR is unset.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients
	if cfg.Redis.Addr != "" {
		bus, err := redis.NewRollupBus(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis rollup bus: %w", err)
		}
		c.RollupBus = bus
	}
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.RollupBus != nil {
		_ = c.RollupBus.Close()
	}
}
