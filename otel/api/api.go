package api

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Provider combines TracerProvider and MeterProvider for unified OpenTelemetry access
type Provider interface {
	// Tracer returns a tracer for creating spans
	Tracer(name string, opts ...trace.TracerOption) trace.Tracer

	// Meter returns a meter for recording metrics
	Meter(name string, opts ...metric.MeterOption) metric.Meter

	// Shutdown gracefully shuts down the provider
	Shutdown(ctx context.Context) error
}

// Common attribute helpers for consistent naming
func StringAttr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

func Int64Attr(key string, value int64) attribute.KeyValue {
	return attribute.Int64(key, value)
}

// Common semantic conventions for HTTP
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
)

// RecordError records an error in the current span
func RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	if err != nil {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err, opts...)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
