package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/rollup-backend/internal/http/handlers"
	httpMW "github.com/yungbote/rollup-backend/internal/http/middleware"
	"github.com/yungbote/rollup-backend/internal/observability"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler *httpH.HealthHandler
	RollupHandler *httpH.RollupHandler
	EventHandler  *httpH.EventHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.RollupHandler != nil {
		api.GET("/rollups/:category", cfg.RollupHandler.ListRollups)
		api.GET("/rollups/:category/monthly", cfg.RollupHandler.Monthly)
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		if cfg.RollupHandler != nil {
			protected.POST("/rollups/:category/runs", cfg.RollupHandler.Run)
		}
		if cfg.EventHandler != nil {
			protected.POST("/events/:category", cfg.EventHandler.Ingest)
		}
	}

	return r
}
