package app

import (
	"strings"
	"time"

	"github.com/yungbote/rollup-backend/internal/clients/redis"
	"github.com/yungbote/rollup-backend/internal/data/db"
	"github.com/yungbote/rollup-backend/internal/platform/envutil"
	"github.com/yungbote/rollup-backend/internal/platform/logger"
	"github.com/yungbote/rollup-backend/internal/temporalx"
)

type Config struct {
	Port        string
	ServiceName string
	Environment string
	Version     string

	DayTimezone        string
	CategoryConfigPath string

	JWTSecretKey   string
	AccessTokenTTL time.Duration
	AllowedOrigins []string

	SchedulerWeekday     time.Weekday
	SchedulerInterval    time.Duration
	SchedulerConcurrency int

	DB       db.Config
	Redis    redis.Config
	Temporal temporalx.Config
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		ServiceName: envutil.String("SERVICE_NAME", "rollup-backend"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),

		DayTimezone:        envutil.String("DAY_TIMEZONE", "UTC"),
		CategoryConfigPath: envutil.String("CATEGORY_CONFIG_PATH", ""),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", time.Hour),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),

		SchedulerWeekday:     parseWeekday(envutil.String("ROLLUP_WEEKDAY", "monday")),
		SchedulerInterval:    envutil.Duration("ROLLUP_SCHEDULER_INTERVAL", time.Minute),
		SchedulerConcurrency: envutil.Int("WORKER_CONCURRENCY", 4),

		DB: db.LoadConfig(),
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("ROLLUP_REDIS_CHANNEL", "rollups"),
		},
		Temporal: temporalx.LoadConfig(),
	}
	log.Debug("Configuration loaded",
		"db_driver", cfg.DB.Driver,
		"day_timezone", cfg.DayTimezone,
		"temporal", cfg.Temporal.Enabled(),
		"redis", cfg.Redis.Addr != "",
	)
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseWeekday(s string) time.Weekday {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d
		}
	}
	return time.Monday
}
