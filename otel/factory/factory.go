package factory

import (
	"github.com/bignyap/s3filestore/otel/adapters/otel"
	"github.com/bignyap/s3filestore/otel/api"
	"github.com/bignyap/s3filestore/otel/config"
)

// NewProvider creates a new OpenTelemetry provider based on configuration
func NewProvider(cfg config.OtelConfig) (api.Provider, error) {
	return otel.NewOtelProvider(cfg)
}
