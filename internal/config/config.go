package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost        string   `toml:"postgres_host"`
	PostgresPort        string   `toml:"postgres_port"`
	PostgresDBName      string   `toml:"postgres_db_name"`
	PostgresUser        string   `toml:"postgres_user"`
	PostgresMaxConns    int32    `toml:"postgres_max_conns"`
	PostgresLockTimeout Duration `toml:"postgres_lock_timeout"`
	RunMigrations       bool     `toml:"run_migrations"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// web
	UploadsPath                 string   `toml:"uploads_path"`
	MaxUploadSizeMB             int64    `toml:"max_upload_size_mb"`
	PageSize                    int      `toml:"page_size"`
	SessionTTL                  Duration `toml:"session_ttl"`
	SessionCleanInterval        Duration `toml:"session_clean_interval"`
	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`
	SecureCookies               bool     `toml:"secure_cookies"`
}

// Duration decodes TOML strings like "5s" or "168h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.PostgresMaxConns <= 0 {
		c.PostgresMaxConns = 10
	}
	if c.PostgresLockTimeout.Duration <= 0 {
		c.PostgresLockTimeout.Duration = 5 * time.Second
	}
	if c.MaxUploadSizeMB <= 0 {
		c.MaxUploadSizeMB = 5
	}
	if c.SessionTTL.Duration <= 0 {
		c.SessionTTL.Duration = 7 * 24 * time.Hour
	}
	if c.SessionCleanInterval.Duration <= 0 {
		c.SessionCleanInterval.Duration = 8 * time.Hour
	}
	if c.LoginRateLimitAllowedPerMin <= 0 {
		c.LoginRateLimitAllowedPerMin = 15
	}
}

func (c *Config) MaxUploadSizeBytes() int64 {
	return c.MaxUploadSizeMB << 20
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return t.Get(env)
}
