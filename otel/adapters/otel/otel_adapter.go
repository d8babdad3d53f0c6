package otel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bignyap/s3filestore/otel/api"
	"github.com/bignyap/s3filestore/otel/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials/insecure"
)

// parseEndpointURL returns the host:port portion of endpoint. OTLP HTTP
// exporters expect host:port, not full URLs.
func parseEndpointURL(endpoint string) (hostPort string, isHTTPS bool) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, false
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return endpoint, false
	}
	return parsed.Host, parsed.Scheme == "https"
}

// OtelProvider implements the api.Provider interface using OpenTelemetry SDK
type OtelProvider struct {
	config         config.OtelConfig
	resource       *resource.Resource
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Ensure OtelProvider implements api.Provider
var _ api.Provider = (*OtelProvider)(nil)

// NewOtelProvider creates a new OpenTelemetry provider and installs it as the
// global tracer/meter provider so otelgin and redisotel pick it up.
func NewOtelProvider(cfg config.OtelConfig) (*OtelProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	provider := &OtelProvider{config: cfg}

	res, err := provider.createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	provider.resource = res

	if cfg.EnableTraces {
		exporter, err := newTraceExporter(cfg.TraceExporter)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
		provider.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(newSampler(cfg.Sampling)),
		)
		otel.SetTracerProvider(provider.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		))
	}

	if cfg.EnableMetrics {
		exporter, err := newMetricExporter(cfg.MetricExporter)
		if err != nil {
			return nil, fmt.Errorf("failed to create meter provider: %w", err)
		}
		provider.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(10*time.Second),
			)),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(provider.meterProvider)
	}

	return provider, nil
}

func (p *OtelProvider) createResource() (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceName(p.config.Resource.ServiceName),
			semconv.ServiceVersion(p.config.Resource.ServiceVersion),
		),
	}
	if p.config.Resource.ServiceEnvironment != "" {
		attrs = append(attrs, resource.WithAttributes(
			semconv.DeploymentEnvironment(p.config.Resource.ServiceEnvironment),
		))
	}
	if p.config.Resource.ServiceInstanceID != "" {
		attrs = append(attrs, resource.WithAttributes(
			semconv.ServiceInstanceID(p.config.Resource.ServiceInstanceID),
		))
	}
	for key, value := range p.config.Resource.CustomAttributes {
		attrs = append(attrs, resource.WithAttributes(api.StringAttr(key, value)))
	}

	return resource.New(context.Background(), attrs...)
}

func newTraceExporter(cfg config.ExporterConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Type {
	case config.ExporterTypeConsole:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())

	case config.ExporterTypeOTLPHTTP:
		hostPort, isHTTPS := parseEndpointURL(cfg.Endpoint)
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(hostPort)}
		if cfg.Insecure || !isHTTPS {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(context.Background(), opts...)

	case config.ExporterTypeOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		return otlptracegrpc.New(context.Background(), opts...)

	default:
		return nil, fmt.Errorf("unsupported trace exporter type: %s", cfg.Type)
	}
}

func newMetricExporter(cfg config.ExporterConfig) (sdkmetric.Exporter, error) {
	switch cfg.Type {
	case config.ExporterTypeConsole:
		return stdoutmetric.New(stdoutmetric.WithPrettyPrint())

	case config.ExporterTypeOTLPHTTP:
		hostPort, isHTTPS := parseEndpointURL(cfg.Endpoint)
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(hostPort)}
		if cfg.Insecure || !isHTTPS {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
		}
		return otlpmetrichttp.New(context.Background(), opts...)

	case config.ExporterTypeOTLP:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)

	default:
		return nil, fmt.Errorf("unsupported metric exporter type: %s", cfg.Type)
	}
}

func newSampler(cfg config.SamplingConfig) sdktrace.Sampler {
	switch cfg.Type {
	case config.SamplingTypeAlwaysOff:
		return sdktrace.NeverSample()
	case config.SamplingTypeTraceID:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Ratio))
	default:
		return sdktrace.AlwaysSample()
	}
}

// Tracer returns a tracer for creating spans
func (p *OtelProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.tracerProvider == nil {
		return tracenoop.NewTracerProvider().Tracer(name)
	}
	return p.tracerProvider.Tracer(name, opts...)
}

// Meter returns a meter for recording metrics
func (p *OtelProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p.meterProvider == nil {
		return noop.NewMeterProvider().Meter(name)
	}
	return p.meterProvider.Meter(name, opts...)
}

// Shutdown flushes and stops both providers
func (p *OtelProvider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
