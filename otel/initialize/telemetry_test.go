package initialize_test

import (
	"context"
	"testing"

	"github.com/bignyap/s3filestore/otel/initialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeTelemetryFromEnv_Disabled(t *testing.T) {
	t.Setenv("OTEL_ENABLE_TRACES", "false")
	t.Setenv("OTEL_ENABLE_METRICS", "false")

	provider, err := initialize.InitializeTelemetryFromEnv("s3filestore")
	require.NoError(t, err)
	assert.Nil(t, provider)
	assert.NoError(t, initialize.ShutdownTelemetry(context.Background(), provider))
}

func TestInitializeTelemetryFromEnv_Console(t *testing.T) {
	t.Setenv("OTEL_ENABLE_TRACES", "true")
	t.Setenv("OTEL_EXPORTER", "console")

	provider, err := initialize.InitializeTelemetryFromEnv("s3filestore")
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.NoError(t, initialize.ShutdownTelemetry(context.Background(), provider))
}
