package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Timer   TimerConfig   `mapstructure:"timer"`
	Stats   StatsConfig   `mapstructure:"stats"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig defines the control API and metrics listeners
type ServerConfig struct {
	ControlAddr    string `mapstructure:"control_addr"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"` // "bolt", "redis" or "memory"
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

// TimerConfig defines stopwatch behaviour
type TimerConfig struct {
	TickInterval   string `mapstructure:"tick_interval"`
	SaveInterval   string `mapstructure:"save_interval"`
	PersistDefault bool   `mapstructure:"persist_default"` // seeds persist-timer when unset
}

// StatsConfig defines stats snapshot settings
type StatsConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Configure viper
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("FOCUSWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.control_addr", "127.0.0.1:7313")
	v.SetDefault("server.metrics_addr", "127.0.0.1:9313")
	v.SetDefault("server.metrics_enabled", true)

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 4)
	v.SetDefault("storage.redis.min_idle_conns", 1)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")
	v.SetDefault("storage.redis.key_prefix", "focuswatch")

	// Timer defaults
	v.SetDefault("timer.tick_interval", "1s")
	v.SetDefault("timer.save_interval", "5s")
	v.SetDefault("timer.persist_default", true)

	// Stats defaults
	v.SetDefault("stats.cache_size", 64)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func defaultStoragePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "focuswatch", "focuswatch.bolt")
	}
	return "focuswatch.bolt"
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "bolt"
	}

	switch cfg.Storage.Type {
	case "bolt":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required for bolt storage")
		}
	case "redis":
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("storage.redis.host is required for redis storage")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported storage type: %s (bolt, redis or memory)", cfg.Storage.Type)
	}

	if _, _, err := net.SplitHostPort(cfg.Server.ControlAddr); err != nil {
		return fmt.Errorf("invalid control address %q: %w", cfg.Server.ControlAddr, err)
	}
	if cfg.Server.MetricsEnabled {
		if _, _, err := net.SplitHostPort(cfg.Server.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics address %q: %w", cfg.Server.MetricsAddr, err)
		}
	}

	if err := positiveDuration("timer.tick_interval", cfg.Timer.TickInterval); err != nil {
		return err
	}
	if err := positiveDuration("timer.save_interval", cfg.Timer.SaveInterval); err != nil {
		return err
	}

	if cfg.Stats.CacheSize <= 0 {
		return fmt.Errorf("stats.cache_size must be positive, got %d", cfg.Stats.CacheSize)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	return nil
}

func positiveDuration(name, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return nil
}

// ParseDuration parses a duration string with a fallback
func ParseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
