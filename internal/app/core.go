package app

import (
	"fmt"
	"time"

	"github.com/yungbote/rollup-backend/internal/data/db"
	"github.com/yungbote/rollup-backend/internal/eventsource"
	"github.com/yungbote/rollup-backend/internal/observability"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/calendar"
	"github.com/yungbote/rollup-backend/internal/rollup/categories"
)

// Core is everything below the HTTP layer. The server and rollupctl share it.
type Core struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Metrics  *observability.Metrics
	Location *time.Location
	Registry *categories.Registry
	Clients  Clients
	Repos    Repos
	Services Services
}

type CoreOptions struct {
	// Events replaces the tracked_event table as the event source (rollupctl dry runs).
	Events map[string][]rollup.Event
	// SkipClients leaves Redis unconnected.
	SkipClients bool
}

func NewCore(log *logger.Logger, cfg Config, opts CoreOptions) (*Core, error) {
	loc, err := calendar.LoadLocation(cfg.DayTimezone)
	if err != nil {
		return nil, fmt.Errorf("DAY_TIMEZONE: %w", err)
	}
	registry := categories.Defaults()
	if cfg.CategoryConfigPath != "" {
		registry, err = categories.Load(cfg.CategoryConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		log.Info("Loaded category overrides", "path", cfg.CategoryConfigPath, "categories", registry.Names())
	}

	dbs, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		_ = dbs.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	var clients Clients
	if !opts.SkipClients {
		clients, err = wireClients(log, cfg)
		if err != nil {
			_ = dbs.Close()
			return nil, err
		}
	}

	metrics := observability.NewMetrics()
	reposet := wireRepos(dbs.DB(), log, loc, metrics)
	var source eventsource.Source = reposet.TrackedEvent
	if opts.Events != nil {
		source = eventsource.Static{Events: opts.Events, Location: loc}
	}
	serviceset, err := wireServices(dbs.DB(), log, loc, registry, source, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = dbs.Close()
		return nil, err
	}

	return &Core{
		Log:      log,
		Cfg:      cfg,
		DB:       dbs,
		Metrics:  metrics,
		Location: loc,
		Registry: registry,
		Clients:  clients,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

func (c *Core) Close() {
	if c == nil {
		return
	}
	c.Clients.Close()
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
