package factory_test

import (
	"testing"

	"github.com/bignyap/s3filestore/logger/adapters/mock"
	"github.com/bignyap/s3filestore/logger/config"
	"github.com/bignyap/s3filestore/logger/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Level = "none"
	log, err := factory.NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestGlobalLogger(t *testing.T) {
	t.Cleanup(factory.Reset)
	factory.Reset()

	first := factory.GetGlobalLogger()
	require.NotNil(t, first)
	assert.Same(t, first, factory.GetGlobalLogger())

	replacement := mock.NewMockLogger()
	factory.SetGlobalLogger(replacement)
	assert.Same(t, replacement, factory.GetGlobalLogger())
}

func TestSetGlobalLoggerBeforeFirstUse(t *testing.T) {
	t.Cleanup(factory.Reset)
	factory.Reset()

	replacement := mock.NewMockLogger()
	factory.SetGlobalLogger(replacement)
	assert.Same(t, replacement, factory.GetGlobalLogger())
}
