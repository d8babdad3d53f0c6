package initialize

import (
	"context"
	"fmt"

	"github.com/bignyap/s3filestore/otel/api"
	"github.com/bignyap/s3filestore/otel/config"
	"github.com/bignyap/s3filestore/otel/factory"
)

// InitializeTelemetryFromEnv creates a telemetry provider from the OTEL_*
// environment variables:
//   - OTEL_ENABLE_TRACES / OTEL_ENABLE_METRICS (default false)
//   - OTEL_SERVICE_NAME (default serviceName), OTEL_SERVICE_VERSION, OTEL_SERVICE_ENVIRONMENT
//   - OTEL_EXPORTER: console, otlp (gRPC) or otlp-http
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE, OTEL_EXPORTER_AUTH_TOKEN
//   - OTEL_SAMPLING_TYPE, OTEL_SAMPLING_RATIO
//
// Returns a nil provider if both traces and metrics are disabled.
func InitializeTelemetryFromEnv(serviceName string) (api.Provider, error) {
	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		return nil, err
	}
	if !envCfg.EnableTraces && !envCfg.EnableMetrics {
		return nil, nil
	}

	provider, err := factory.NewProvider(envCfg.OtelConfig(serviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	return provider, nil
}

// ShutdownTelemetry gracefully shuts down the telemetry provider.
// It's safe to call with a nil provider.
func ShutdownTelemetry(ctx context.Context, provider api.Provider) error {
	if provider == nil {
		return nil
	}
	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown telemetry provider: %w", err)
	}
	return nil
}
