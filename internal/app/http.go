package app

import (
	"fmt"

	apphttp "github.com/yungbote/rollup-backend/internal/http"
	httpH "github.com/yungbote/rollup-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rollup-backend/internal/http/middleware"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/services"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Rollup *httpH.RollupHandler
	Event  *httpH.EventHandler
}

func wireHandlers(log *logger.Logger, core *Core) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(core.DB),
		Rollup: httpH.NewRollupHandler(core.Services.Rollups),
		Event:  httpH.NewEventHandler(core.Registry, core.Repos.TrackedEvent),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) (Middleware, error) {
	log.Info("Wiring middleware...")
	auth, err := services.NewAuthService(log, cfg.JWTSecretKey)
	if err != nil {
		return Middleware{}, fmt.Errorf("init auth: %w", err)
	}
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, auth)}, nil
}

func wireServer(log *logger.Logger, core *Core, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		ServiceName:    core.Cfg.ServiceName,
		AllowedOrigins: core.Cfg.AllowedOrigins,
		Metrics:        core.Metrics,
		AuthMiddleware: middleware.Auth,
		HealthHandler:  handlers.Health,
		RollupHandler:  handlers.Rollup,
		EventHandler:   handlers.Event,
	})
}
