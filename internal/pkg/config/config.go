package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" validate:"required"`
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Probe       ProbeConfig       `mapstructure:"probe" validate:"required"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Health      HealthConfig      `mapstructure:"health"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"required,oneof=json console"`
	OutputPath string `mapstructure:"output_path" validate:"required"`

	// CorrelationUpperAlias duplicates correlation_id as CORRELATION_ID for
	// sinks that only forward upper-case fields (journald).
	CorrelationUpperAlias bool `mapstructure:"correlation_upper_alias"`
}

// CorrelationConfig holds correlation identifier settings
type CorrelationConfig struct {
	IDFormat string `mapstructure:"id_format" validate:"required,oneof=uuid uuidv7 xid"`
}

// ProbeConfig holds the SSH probe target and round settings
type ProbeConfig struct {
	Host        string        `mapstructure:"host" validate:"required"`
	Port        int           `mapstructure:"port" validate:"required,gt=0,lte=65535"`
	Username    string        `mapstructure:"username" validate:"required"`
	Password    string        `mapstructure:"password"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Count       int           `mapstructure:"count" validate:"gte=1"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
	Retry       RetryConfig   `mapstructure:"retry"`
}

// RetryConfig holds the per-probe retry policy
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1"`
	BaseDelay   time.Duration `mapstructure:"base_delay" validate:"gte=0"`
	MaxDelay    time.Duration `mapstructure:"max_delay" validate:"gte=0"`
	Jitter      bool          `mapstructure:"jitter"`
}

// ScheduleConfig holds the cron spec used by the watch command
type ScheduleConfig struct {
	Spec string `mapstructure:"spec"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string `mapstructure:"host" validate:"required"`
	Port            int    `mapstructure:"port" validate:"required,gt=0,lte=65535"`
	ReadTimeout     int    `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    int    `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// HealthConfig holds readiness check settings
type HealthConfig struct {
	CheckTimeout time.Duration `mapstructure:"check_timeout" validate:"gte=0"`
}

// RateLimitConfig holds the token bucket applied to probe requests
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Rate     int           `mapstructure:"rate" validate:"gt=0"`
	Burst    int           `mapstructure:"burst" validate:"gtefield=Rate"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

// Source tells Load where to look for configuration.
// An empty File searches ./config and the working directory for config.yaml.
type Source struct {
	File string

	// Overrides are applied last, after file and environment values.
	// Keys are dot-separated, e.g. "probe.host".
	Overrides map[string]any
}

// Load reads configuration from file, APP_ environment variables and defaults
func Load(src Source) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if src.File != "" {
		v.SetConfigFile(src.File)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine unless it was asked for explicitly
		var notFound viper.ConfigFileNotFoundError
		if src.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range src.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without reading files or env
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Logger defaults
	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.correlation_upper_alias", false)

	// Correlation defaults
	v.SetDefault("correlation.id_format", "uuid")

	// Probe defaults
	v.SetDefault("probe.host", "localhost")
	v.SetDefault("probe.port", 22)
	v.SetDefault("probe.username", "root")
	v.SetDefault("probe.password", "foo")
	v.SetDefault("probe.timeout", 3*time.Second)
	v.SetDefault("probe.count", 2)
	v.SetDefault("probe.concurrency", 10)
	v.SetDefault("probe.retry.max_attempts", 1)
	v.SetDefault("probe.retry.base_delay", 200*time.Millisecond)
	v.SetDefault("probe.retry.max_delay", 2*time.Second)
	v.SetDefault("probe.retry.jitter", true)

	// Schedule defaults
	v.SetDefault("schedule.spec", "@every 30s")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.shutdown_timeout", 10)

	// Health defaults
	v.SetDefault("health.check_timeout", 5*time.Second)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rate", 10)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.interval", time.Minute)
}

var validate = validator.New()

// Validate validates the configuration
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Probe.Retry.MaxDelay > 0 && cfg.Probe.Retry.MaxDelay < cfg.Probe.Retry.BaseDelay {
		return fmt.Errorf("probe retry max_delay %s is below base_delay %s",
			cfg.Probe.Retry.MaxDelay, cfg.Probe.Retry.BaseDelay)
	}

	return nil
}
