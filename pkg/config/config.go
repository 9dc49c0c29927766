package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid marks configuration that loaded but failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the complete application configuration
type Config struct {
	Sample  SampleConfig  `mapstructure:"sample" yaml:"sample"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// SampleConfig controls the tick loop
type SampleConfig struct {
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
	Target    string        `mapstructure:"target" yaml:"target"` // "foreground" or "self"
	SaveEvery int           `mapstructure:"save_every" yaml:"save_every"`
}

// StorageConfig selects and configures the usage record backend
type StorageConfig struct {
	Type  string      `mapstructure:"type" yaml:"type"` // "json" or "redis"
	Path  string      `mapstructure:"path" yaml:"path"`
	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig defines the optional Redis backend
type RedisConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	Password    string `mapstructure:"password" yaml:"password"`
	DB          int    `mapstructure:"db" yaml:"db"`
	Prefix      string `mapstructure:"prefix" yaml:"prefix"`
	DialTimeout string `mapstructure:"dial_timeout" yaml:"dial_timeout"`
}

// ReportConfig controls the periodic usage chart
type ReportConfig struct {
	Mode  string `mapstructure:"mode" yaml:"mode"` // "chart", "table" or "none"
	Async bool   `mapstructure:"async" yaml:"async"`
	Width int    `mapstructure:"width" yaml:"width"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig enables the Prometheus exporter when Addr is set
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

const (
	TargetForeground = "foreground"
	TargetSelf       = "self"

	StorageJSON  = "json"
	StorageRedis = "redis"

	ReportChart = "chart"
	ReportTable = "table"
	ReportNone  = "none"
)

// New returns a viper instance with defaults and environment binding applied.
// Callers may bind flags to it before handing it to Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APPWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configPath (if any) into v and returns the validated configuration.
// A missing config file is not an error; defaults and environment apply.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return &cfg, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	var cfg Config
	_ = Defaults().Unmarshal(&cfg)
	return &cfg
}

// Defaults returns a viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// Keys returns every configuration key appwatch understands.
func Keys() map[string]bool {
	keys := make(map[string]bool)
	for _, key := range Defaults().AllKeys() {
		keys[key] = true
	}
	return keys
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("sample.interval", "1s")
	v.SetDefault("sample.target", TargetForeground)
	v.SetDefault("sample.save_every", 60)

	v.SetDefault("storage.type", StorageJSON)
	v.SetDefault("storage.path", "usage_data.json")
	v.SetDefault("storage.redis.addr", "127.0.0.1:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "appwatch")
	v.SetDefault("storage.redis.dial_timeout", "5s")

	v.SetDefault("report.mode", ReportChart)
	v.SetDefault("report.async", false)
	v.SetDefault("report.width", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.addr", "")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Sample.Interval <= 0 {
		return fmt.Errorf("sample interval must be positive, got %s", cfg.Sample.Interval)
	}
	if cfg.Sample.SaveEvery <= 0 {
		return fmt.Errorf("save_every must be positive, got %d", cfg.Sample.SaveEvery)
	}
	switch cfg.Sample.Target {
	case TargetForeground, TargetSelf:
	default:
		return fmt.Errorf("unknown sample target %q", cfg.Sample.Target)
	}

	switch cfg.Storage.Type {
	case StorageJSON:
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
	case StorageRedis:
		if cfg.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis address is required")
		}
		if _, err := time.ParseDuration(cfg.Storage.Redis.DialTimeout); err != nil {
			return fmt.Errorf("invalid redis dial_timeout: %w", err)
		}
	default:
		return fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}

	switch cfg.Report.Mode {
	case ReportChart, ReportTable, ReportNone:
	default:
		return fmt.Errorf("unknown report mode %q", cfg.Report.Mode)
	}
	if cfg.Report.Width < 0 {
		return fmt.Errorf("report width must not be negative")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Logging.Format)
	}

	return nil
}
