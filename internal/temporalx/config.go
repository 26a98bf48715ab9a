package temporalx

import (
	"time"

	"github.com/yungbote/rollup-backend/internal/platform/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	AutoRegisterNamespace bool
	NamespaceRetention    time.Duration

	DialTimeout time.Duration
	DialMaxWait time.Duration
	Backoff     time.Duration
	BackoffMax  time.Duration

	// RollupCron fires the weekly schedule workflow.
	RollupCron string
}

func LoadConfig() Config {
	retentionDays := min(365, max(1, envutil.Int("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7)))
	return Config{
		Address:   envutil.String("TEMPORAL_ADDRESS", ""),
		Namespace: envutil.String("TEMPORAL_NAMESPACE", "rollups"),
		TaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", "rollups"),

		ClientCertPath: envutil.String("TEMPORAL_CLIENT_CERT_PATH", ""),
		ClientKeyPath:  envutil.String("TEMPORAL_CLIENT_KEY_PATH", ""),
		ClientCAPath:   envutil.String("TEMPORAL_CLIENT_CA_PATH", ""),

		AutoRegisterNamespace: envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		NamespaceRetention:    time.Duration(retentionDays) * 24 * time.Hour,

		DialTimeout: envutil.Duration("TEMPORAL_DIAL_TIMEOUT", 5*time.Second),
		DialMaxWait: envutil.Duration("TEMPORAL_DIAL_MAX_WAIT", 60*time.Second),
		Backoff:     envutil.Duration("TEMPORAL_DIAL_BACKOFF", 250*time.Millisecond),
		BackoffMax:  envutil.Duration("TEMPORAL_DIAL_BACKOFF_MAX", 5*time.Second),

		RollupCron: envutil.String("TEMPORAL_ROLLUP_CRON", "0 3 * * 1"),
	}
}

func (c Config) Enabled() bool { return c.Address != "" }

func (c Config) tlsEnabled() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}
