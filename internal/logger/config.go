package logger

import "fmt"

// Config represents logging configuration
type Config struct {
	Level      string `mapstructure:"level"`    // debug, info, warn, error
	Output     string `mapstructure:"output"`   // stderr, stdout
	File       string `mapstructure:"file"`     // optional rotated JSON log file
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns the logging configuration used when none is given
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Output:     "stderr",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// SetDefaults fills unset fields and returns the config
func (cfg *Config) SetDefaults() *Config {
	def := DefaultConfig()
	if cfg.Level == "" {
		cfg.Level = def.Level
	}
	if cfg.Output == "" {
		cfg.Output = def.Output
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = def.MaxBackups
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}
	return cfg
}

// Validate validates logging configuration
func (cfg *Config) Validate() error {
	if cfg.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	switch cfg.Output {
	case "stderr", "stdout":
	default:
		return fmt.Errorf("invalid log output: %s", cfg.Output)
	}
	return nil
}
