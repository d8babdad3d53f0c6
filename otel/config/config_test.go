package config_test

import (
	"testing"

	"github.com/bignyap/s3filestore/otel/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("OTEL_ENABLE_TRACES", "true")
	t.Setenv("OTEL_EXPORTER", "otlp-http")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
	t.Setenv("OTEL_EXPORTER_AUTH_TOKEN", "secret")

	envCfg, err := config.LoadEnvConfig()
	require.NoError(t, err)

	cfg := envCfg.OtelConfig("s3filestore")
	assert.True(t, cfg.EnableTraces)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, "s3filestore", cfg.Resource.ServiceName)
	assert.Equal(t, config.ExporterTypeOTLPHTTP, cfg.TraceExporter.Type)
	assert.Equal(t, "Bearer secret", cfg.TraceExporter.Headers["Authorization"])
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := config.OtelConfig{}
	assert.Error(t, cfg.Validate())

	cfg.Resource.ServiceName = "svc"
	cfg.EnableTraces = true
	cfg.TraceExporter.Type = "zipkin"
	assert.ErrorContains(t, cfg.Validate(), "unknown exporter type")

	cfg.TraceExporter = config.ExporterConfig{Type: config.ExporterTypeConsole}
	cfg.Sampling = config.SamplingConfig{Type: config.SamplingTypeTraceID, Ratio: 2}
	assert.ErrorContains(t, cfg.Validate(), "sampling ratio")
}
