package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Restaurant RestaurantConfig `yaml:"restaurant"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Reconcile  ReconcileConfig  `yaml:"reconcile"`
	Store      StoreConfig      `yaml:"store"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// RestaurantConfig names the restaurant in guest-facing messages.
type RestaurantConfig struct {
	Name string `yaml:"name"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateBurst       int     `yaml:"rate_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration. DSNs starting
// with "file:" or ending in ".db" open SQLite, anything else Postgres.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	// MigrateReservations creates the reservations table. Only for local
	// databases; the remote table is not owned by this service.
	MigrateReservations bool `yaml:"migrate_reservations"`
}

// RedisConfig holds the connection used by the realtime feed.
type RedisConfig struct {
	Address       string `yaml:"address"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

// RealtimeConfig toggles the change feed.
type RealtimeConfig struct {
	Enabled       bool `yaml:"enabled"`
	PublishWrites bool `yaml:"publish_writes"`
}

// ReconcileConfig controls the active date and periodic resync.
type ReconcileConfig struct {
	ResyncIntervalSeconds int           `yaml:"resync_interval_seconds"`
	ResyncInterval        time.Duration `yaml:"-"`
	Timezone              string        `yaml:"timezone"`
	// InitialDate is YYYY-MM-DD; empty means today in Timezone.
	InitialDate string `yaml:"initial_date"`
}

// StoreConfig overrides the ordered shift encodings tried on writes.
type StoreConfig struct {
	ShiftEncodings map[string][]string `yaml:"shift_encodings"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether staff alerts can be sent.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LogConfig selects the log level and output format (console or json).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MonitoringConfig holds the health and metrics listeners.
type MonitoringConfig struct {
	HealthCheckPort   int  `yaml:"health_check_port"`
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

// Load reads the configuration from the given path. ${VAR} placeholders are
// expanded from the environment before decoding.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Restaurant.Name == "" {
		cfg.Restaurant.Name = "Restaurante Vila das Meninas"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 2
	}
	if cfg.Redis.ChannelPrefix == "" {
		cfg.Redis.ChannelPrefix = "reservations"
	}
	if cfg.Reconcile.ResyncIntervalSeconds <= 0 {
		cfg.Reconcile.ResyncIntervalSeconds = 60
	}
	cfg.Reconcile.ResyncInterval = time.Duration(cfg.Reconcile.ResyncIntervalSeconds) * time.Second
	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	if cfg.Monitoring.PrometheusPort == 0 {
		cfg.Monitoring.PrometheusPort = 9090
	}
}

// StartDate resolves the date the controller starts on.
func (c ReconcileConfig) StartDate(now time.Time) (string, error) {
	if c.InitialDate != "" {
		return c.InitialDate, nil
	}
	loc := time.Local
	if c.Timezone != "" {
		l, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return "", fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
		loc = l
	}
	return now.In(loc).Format(time.DateOnly), nil
}
