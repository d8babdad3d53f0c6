package server

import (
	"context"
	"fmt"
	"time"

	"github.com/bignyap/s3filestore/logger/api"
	"github.com/caarlos0/env"
	"github.com/gin-gonic/gin"
)

// Server defines the HTTP server contract
type Server interface {
	Start() error
	Router() *gin.Engine
	Shutdown(ctx context.Context) error
	GetResponseWriter() *ResponseWriter
	GetLogger() api.Logger
}

// Config defines runtime configuration
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Environment     string        `env:"APP_ENV" envDefault:"dev"`
	Version         string        `env:"APP_VERSION" envDefault:"dev"`
	MaxRequestSize  int64         `env:"MAX_REQUEST_SIZE" envDefault:"104857600"`
	EnableProfiling bool          `env:"ENABLE_PROFILING"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		Environment:     "dev",
		Version:         "dev",
		MaxRequestSize:  100 << 20, // 100 MB
		EnableProfiling: false,
		ShutdownTimeout: 15 * time.Second,
	}
}

// LoadConfig reads the server configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = DefaultConfig().MaxRequestSize
	}
	return cfg, nil
}

// Handler allows for modular startup and teardown
type Handler interface {
	Setup(server Server) error
	Shutdown() error
}
