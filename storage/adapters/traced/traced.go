// Package traced decorates an ObjectStore with OpenTelemetry spans and
// per-operation metrics.
package traced

import (
	"context"
	"errors"
	"io"
	"time"

	otelapi "github.com/bignyap/s3filestore/otel/api"
	"github.com/bignyap/s3filestore/storage/api"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/bignyap/s3filestore/storage"

// Store wraps an ObjectStore. It adds no behaviour beyond telemetry.
type Store struct {
	next     api.ObjectStore
	tracer   trace.Tracer
	ops      metric.Int64Counter
	duration metric.Float64Histogram
}

// Ensure Store implements api.ObjectStore
var _ api.ObjectStore = (*Store)(nil)

// New wraps next with telemetry from provider
func New(next api.ObjectStore, provider otelapi.Provider) *Store {
	meter := provider.Meter(instrumentationName)

	ops, _ := meter.Int64Counter(
		"storage.operations",
		metric.WithDescription("Total number of object store operations"),
	)
	duration, _ := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Object store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Store{
		next:     next,
		tracer:   provider.Tracer(instrumentationName),
		ops:      ops,
		duration: duration,
	}
}

// Unwrap returns the decorated store
func (s *Store) Unwrap() api.ObjectStore {
	return s.next
}

func (s *Store) start(ctx context.Context, op, key string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "storage."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("storage.key", key)),
	)
	started := time.Now()

	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = outcomeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("storage.outcome", outcome))
		span.End()

		attrs := metric.WithAttributes(
			attribute.String("storage.op", op),
			attribute.String("storage.outcome", outcome),
		)
		s.ops.Add(ctx, 1, attrs)
		s.duration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
	}
}

func outcomeOf(err error) string {
	switch {
	case api.IsNotFound(err):
		return "not_found"
	case errors.Is(err, api.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, api.ErrInvalidRef):
		return "invalid_ref"
	default:
		return "error"
	}
}

func (s *Store) EnsureBucket(ctx context.Context, name string) (api.Bucket, error) {
	ctx, end := s.start(ctx, "ensure_bucket", name)
	bucket, err := s.next.EnsureBucket(ctx, name)
	end(err)
	return bucket, err
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts api.PutOptions) error {
	ctx, end := s.start(ctx, "put", key)
	err := s.next.Put(ctx, key, body, size, opts)
	end(err)
	return err
}

func (s *Store) Head(ctx context.Context, key string) (api.ObjectInfo, error) {
	ctx, end := s.start(ctx, "head", key)
	info, err := s.next.Head(ctx, key)
	end(err)
	return info, err
}

// Get records the span around opening the stream only. Reading the body
// happens after the call returns.
func (s *Store) Get(ctx context.Context, key string, rangeStart int64) (*api.Object, error) {
	ctx, end := s.start(ctx, "get", key)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("storage.range_start", rangeStart))
	obj, err := s.next.Get(ctx, key, rangeStart)
	end(err)
	return obj, err
}

func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ctx, end := s.start(ctx, "presign", key)
	url, err := s.next.PresignGet(ctx, key, ttl)
	end(err)
	return url, err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, end := s.start(ctx, "delete", key)
	err := s.next.Delete(ctx, key)
	end(err)
	return err
}
