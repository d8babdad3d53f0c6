package factory

import (
	"fmt"

	logapi "github.com/bignyap/s3filestore/logger/api"
	otelapi "github.com/bignyap/s3filestore/otel/api"
	minioadapter "github.com/bignyap/s3filestore/storage/adapters/minio"
	"github.com/bignyap/s3filestore/storage/adapters/mock"
	s3adapter "github.com/bignyap/s3filestore/storage/adapters/s3"
	"github.com/bignyap/s3filestore/storage/adapters/traced"
	"github.com/bignyap/s3filestore/storage/api"
	"github.com/bignyap/s3filestore/storage/config"
)

// Option customises the store returned by NewObjectStore
type Option func(*options)

type options struct {
	provider otelapi.Provider
}

// WithTelemetry wraps the store with spans and metrics from provider.
// A nil provider leaves the store untouched.
func WithTelemetry(provider otelapi.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// NewObjectStore creates the object store selected by cfg.Type.
// Supported types: "s3" (default), "minio", "memory"
func NewObjectStore(cfg config.StorageConfig, log logapi.Logger, opts ...Option) (api.ObjectStore, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := newStore(cfg, log)
	if err != nil {
		return nil, err
	}
	if o.provider != nil {
		store = traced.New(store, o.provider)
	}
	return store, nil
}

func newStore(cfg config.StorageConfig, log logapi.Logger) (api.ObjectStore, error) {
	switch cfg.StorageType() {
	case api.StorageTypeS3:
		return s3adapter.NewS3StorageService(cfg, log)

	case api.StorageTypeMinio:
		return minioadapter.NewMinIOStorageService(cfg, log)

	case api.StorageTypeMemory:
		return mock.NewStore(cfg.BucketName), nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s (supported: s3, minio, memory)", cfg.Type)
	}
}
