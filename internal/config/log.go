package config

import "netloc/internal/logger"

// DefaultLogConfig returns the logging configuration used when the file sets none
func DefaultLogConfig() *LogConfig {
	return logger.DefaultConfig()
}
