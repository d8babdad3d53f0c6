package zerolog_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bignyap/s3filestore/logger/adapters/zerolog"
	"github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/logger/config"
	"github.com/stretchr/testify/assert"
)

func TestLogger_WritesTraceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.NewZerologgerWithWriter(config.DefaultConfig(), &buf)

	ctx := api.WithTraceID(context.Background(), "trace-123")
	log.WithComponent("filestore.uploader").Info(ctx, "Uploaded", api.String("key", "resources/abc/data.csv"))

	out := buf.String()
	assert.Contains(t, out, `"trace_id":"trace-123"`)
	assert.Contains(t, out, `"component":"filestore.uploader"`)
	assert.Contains(t, out, `"key":"resources/abc/data.csv"`)
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Level = "error"
	log := zerolog.NewZerologgerWithWriter(cfg, &buf)

	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	log.Error(context.Background(), "shown", errors.New("boom"))
	assert.Contains(t, buf.String(), `"error":"boom"`)
}
