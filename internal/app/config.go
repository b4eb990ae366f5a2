package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"

	"github.com/logistock/logistock/internal/inventory"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	// AppTokenHash is a bcrypt hash of the bearer token required by mutating
	// routes. Empty leaves them open.
	AppTokenHash string `envconfig:"APP_TOKEN_HASH"`
	AppRateLimit int    `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	InventoryFile string `envconfig:"LOGISTOCK_FILE" default:"inventory.csv"`
	CSVEncoding   string `envconfig:"LOGISTOCK_CSV_ENCODING" default:"utf-8"`

	ReportDir        string        `envconfig:"REPORT_DIR" default:"reports"`
	ReportCacheTTL   time.Duration `envconfig:"REPORT_CACHE_TTL" default:"10m"`
	ReportExportCron string        `envconfig:"REPORT_EXPORT_CRON"`

	// WorkerMetricsAddr is where cmd/worker serves /metrics.
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	// RedisAddr enables the report cache and the export queue when set.
	RedisAddr string `envconfig:"REDIS_ADDR"`
	// PGDSN enables the PostgreSQL mirror and the audit log when set.
	PGDSN string `envconfig:"PG_DSN"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if _, err := inventory.LookupEncoding(c.CSVEncoding); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "pretty", "text", "json":
	default:
		return fmt.Errorf("config: unsupported LOG_FORMAT %q", c.LogFormat)
	}
	if c.AppTokenHash != "" {
		if _, err := bcrypt.Cost([]byte(c.AppTokenHash)); err != nil {
			return fmt.Errorf("config: APP_TOKEN_HASH is not a bcrypt hash: %w", err)
		}
	}
	if c.ReportExportCron != "" && c.RedisAddr == "" {
		return fmt.Errorf("config: REPORT_EXPORT_CRON requires REDIS_ADDR")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
