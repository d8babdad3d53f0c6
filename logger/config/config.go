package config

import (
	"fmt"

	"github.com/caarlos0/env"
)

// LogConfig defines all configuration options for loggers
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error, none)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format determines the output format (json, pretty)
	Format string `env:"LOG_FORMAT" envDefault:"json"`

	// Output determines where logs are written (stdout, file, both)
	Output string `env:"LOG_OUTPUT" envDefault:"stdout"`

	// Environment affects logging behavior (dev, test, prod)
	Environment string `env:"APP_ENV" envDefault:"dev"`

	// FileOptions contains file-specific logging options
	FileOptions FileOptions

	// Fields contains default fields to add to all log messages
	Fields map[string]interface{}
}

// FileOptions configures file-based logging
type FileOptions struct {
	// Directory where log files will be stored
	Directory string `env:"LOG_DIR" envDefault:"./logs"`

	// Filename for log files
	Filename string `env:"LOG_FILE" envDefault:"s3filestore.log"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		Output:      "stdout",
		Environment: "dev",
		FileOptions: FileOptions{
			Directory: "./logs",
			Filename:  "s3filestore.log",
		},
		Fields: map[string]interface{}{},
	}
}

// DevelopmentConfig returns a configuration optimized for development
func DevelopmentConfig() LogConfig {
	config := DefaultConfig()
	config.Level = "debug"
	config.Format = "pretty"
	return config
}

// ProductionConfig returns a configuration optimized for production
func ProductionConfig() LogConfig {
	config := DefaultConfig()
	config.Level = "info"
	config.Output = "both"
	config.Environment = "prod"
	return config
}

// LoadLogConfig reads the logger configuration from environment variables
func LoadLogConfig() (LogConfig, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return LogConfig{}, fmt.Errorf("failed to parse log config: %w", err)
	}
	if err := env.Parse(&cfg.FileOptions); err != nil {
		return LogConfig{}, fmt.Errorf("failed to parse log file options: %w", err)
	}
	cfg.Fields = map[string]interface{}{"service": "s3filestore"}
	return cfg, nil
}
