package db

import (
	"time"

	"github.com/yungbote/rollup-backend/internal/platform/envutil"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string

	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	SQLitePath string

	SlowThreshold time.Duration
}

func LoadConfig() Config {
	return Config{
		Driver:        envutil.String("DB_DRIVER", DriverPostgres),
		Host:          envutil.String("POSTGRES_HOST", "localhost"),
		Port:          envutil.String("POSTGRES_PORT", "5432"),
		User:          envutil.String("POSTGRES_USER", "postgres"),
		Password:      envutil.String("POSTGRES_PASSWORD", ""),
		Name:          envutil.String("POSTGRES_NAME", "rollups"),
		SSLMode:       envutil.String("POSTGRES_SSLMODE", "disable"),
		SQLitePath:    envutil.String("SQLITE_PATH", "rollups.db"),
		SlowThreshold: envutil.Duration("DB_SLOW_THRESHOLD", time.Second),
	}
}
