package middleware

import (
	"time"

	"github.com/bignyap/s3filestore/otel/api"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
)

// OtelMiddleware instruments requests with otelgin using the provider's
// tracer provider.
func OtelMiddleware(serviceName string, provider api.Provider) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithTracerProvider(tracerProvider{provider: provider}))
}

// tracerProvider adapts api.Provider to trace.TracerProvider
type tracerProvider struct {
	embedded.TracerProvider
	provider api.Provider
}

func (t tracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return t.provider.Tracer(name, opts...)
}

// MetricsMiddleware records HTTP metrics for each request
func MetricsMiddleware(provider api.Provider) gin.HandlerFunc {
	meter := provider.Meter("github.com/bignyap/s3filestore/gateway")

	// Create metrics
	requestCounter, _ := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
	)

	requestDuration, _ := meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	activeRequests, _ := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		route := metric.WithAttributes(
			attribute.String(api.HTTPMethodKey, c.Request.Method),
			attribute.String(api.HTTPRouteKey, c.FullPath()),
		)

		activeRequests.Add(ctx, 1, route)
		start := time.Now()

		c.Next()

		attrs := metric.WithAttributes(
			attribute.String(api.HTTPMethodKey, c.Request.Method),
			attribute.String(api.HTTPRouteKey, c.FullPath()),
			attribute.Int(api.HTTPStatusCodeKey, c.Writer.Status()),
		)
		requestCounter.Add(ctx, 1, attrs)
		requestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
		activeRequests.Add(ctx, -1, route)
	}
}
