package retry

import (
	"encoding/json"
	"errors"
	"time"
)

// Config defines the configuration for the retry mechanism.
// Attempts run in stages: the initial stage first, then the per-minute
// stage, then the hourly stage, each waiting its own interval.
type Config struct {
	Enable          bool          `mapstructure:"enable"`           // Enable retry
	InitialAttempts int           `mapstructure:"initial_attempts"` // Number of initial fast attempts
	InitialInterval time.Duration `mapstructure:"initial_interval"` // Interval between initial attempts
	MinuteAttempts  int           `mapstructure:"minute_attempts"`  // Number of slower attempts
	MinuteInterval  time.Duration `mapstructure:"minute_interval"`  // Interval between slower attempts
	HourlyAttempts  int           `mapstructure:"hourly_attempts"`  // Number of hourly attempts
	HourlyInterval  time.Duration `mapstructure:"hourly_interval"`  // Interval between hourly attempts
}

// DefaultRetryConfig returns the default retry configuration. It is
// disabled; enabling it retries a failed delivery three times a second apart.
func DefaultRetryConfig() *Config {
	return &Config{
		Enable:          false,
		InitialAttempts: 3,
		InitialInterval: time.Second,
		MinuteInterval:  time.Minute,
		HourlyInterval:  time.Hour,
	}
}

// Validate validates the retry configuration.
func (cfg *Config) Validate() error {
	if cfg == nil || !cfg.Enable {
		return nil
	}
	if cfg.InitialAttempts <= 0 {
		return errors.New("initial_attempts must be greater than zero")
	}
	if cfg.MinuteAttempts < 0 || cfg.HourlyAttempts < 0 {
		return errors.New("attempt counts cannot be negative")
	}
	if cfg.InitialInterval < 0 || cfg.MinuteInterval < 0 || cfg.HourlyInterval < 0 {
		return errors.New("intervals cannot be negative")
	}
	return nil
}

// Attempts returns the total number of attempts the config allows
func (cfg *Config) Attempts() int {
	if cfg == nil || !cfg.Enable {
		return 1
	}
	return cfg.InitialAttempts + cfg.MinuteAttempts + cfg.HourlyAttempts
}

// String returns a JSON string representation of the Config.
func (cfg *Config) String() string {
	data, _ := json.Marshal(cfg)
	return string(data)
}
