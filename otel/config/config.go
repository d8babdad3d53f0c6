package config

import (
	"fmt"

	"github.com/caarlos0/env"
)

// ExporterType defines the type of exporter to use
type ExporterType string

const (
	ExporterTypeConsole  ExporterType = "console"
	ExporterTypeOTLP     ExporterType = "otlp"
	ExporterTypeOTLPHTTP ExporterType = "otlp-http"
)

// SamplingType defines the type of sampling strategy
type SamplingType string

const (
	SamplingTypeAlwaysOn  SamplingType = "always-on"
	SamplingTypeAlwaysOff SamplingType = "always-off"
	SamplingTypeTraceID   SamplingType = "traceid-ratio"
)

// OtelConfig is the main configuration for OpenTelemetry
type OtelConfig struct {
	Resource ResourceConfig

	TraceExporter  ExporterConfig
	MetricExporter ExporterConfig

	Sampling SamplingConfig

	EnableTraces  bool
	EnableMetrics bool
}

// ResourceConfig contains service resource attributes
type ResourceConfig struct {
	ServiceName        string
	ServiceVersion     string
	ServiceEnvironment string
	ServiceInstanceID  string
	CustomAttributes   map[string]string
}

// ExporterConfig contains exporter configuration
type ExporterConfig struct {
	// Type is the exporter type (console, otlp, otlp-http)
	Type ExporterType

	// Endpoint is host:port for otlp, or a URL for otlp-http
	Endpoint string

	// Headers are additional headers to send with exports
	Headers map[string]string

	// Insecure disables TLS
	Insecure bool
}

// SamplingConfig contains sampling configuration
type SamplingConfig struct {
	Type SamplingType

	// Ratio is the sampling ratio (0.0 to 1.0) for traceid-ratio sampling
	Ratio float64
}

// EnvConfig mirrors the OTEL_* environment variables read at startup
type EnvConfig struct {
	EnableTraces       bool    `env:"OTEL_ENABLE_TRACES"`
	EnableMetrics      bool    `env:"OTEL_ENABLE_METRICS"`
	ServiceName        string  `env:"OTEL_SERVICE_NAME"`
	ServiceVersion     string  `env:"OTEL_SERVICE_VERSION" envDefault:"1.0.0"`
	ServiceEnvironment string  `env:"OTEL_SERVICE_ENVIRONMENT" envDefault:"dev"`
	Exporter           string  `env:"OTEL_EXPORTER" envDefault:"console"`
	Endpoint           string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure           bool    `env:"OTEL_EXPORTER_OTLP_INSECURE"`
	AuthToken          string  `env:"OTEL_EXPORTER_AUTH_TOKEN"`
	SamplingType       string  `env:"OTEL_SAMPLING_TYPE" envDefault:"always-on"`
	SamplingRatio      float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"1.0"`
}

// LoadEnvConfig reads the OTEL_* environment variables
func LoadEnvConfig() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse telemetry config: %w", err)
	}
	return cfg, nil
}

// OtelConfig converts the environment view into a provider configuration.
// serviceName is used when OTEL_SERVICE_NAME is unset.
func (e EnvConfig) OtelConfig(serviceName string) OtelConfig {
	name := e.ServiceName
	if name == "" {
		name = serviceName
	}

	exporter := ExporterConfig{
		Type:     ExporterType(e.Exporter),
		Endpoint: e.Endpoint,
		Insecure: e.Insecure,
	}
	if e.AuthToken != "" {
		exporter.Headers = map[string]string{"Authorization": "Bearer " + e.AuthToken}
	}

	return OtelConfig{
		Resource: ResourceConfig{
			ServiceName:        name,
			ServiceVersion:     e.ServiceVersion,
			ServiceEnvironment: e.ServiceEnvironment,
		},
		TraceExporter:  exporter,
		MetricExporter: exporter,
		Sampling: SamplingConfig{
			Type:  SamplingType(e.SamplingType),
			Ratio: e.SamplingRatio,
		},
		EnableTraces:  e.EnableTraces,
		EnableMetrics: e.EnableMetrics,
	}
}

// Validate validates the configuration
func (c *OtelConfig) Validate() error {
	if c.Resource.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	if c.EnableTraces {
		if err := c.TraceExporter.Validate(); err != nil {
			return fmt.Errorf("trace exporter config invalid: %w", err)
		}
	}

	if c.EnableMetrics {
		if err := c.MetricExporter.Validate(); err != nil {
			return fmt.Errorf("metric exporter config invalid: %w", err)
		}
	}

	if c.Sampling.Type == SamplingTypeTraceID {
		if c.Sampling.Ratio < 0 || c.Sampling.Ratio > 1 {
			return fmt.Errorf("sampling ratio must be between 0.0 and 1.0")
		}
	}

	return nil
}

// Validate validates the exporter configuration
func (e *ExporterConfig) Validate() error {
	switch e.Type {
	case ExporterTypeConsole:
		return nil
	case ExporterTypeOTLP, ExporterTypeOTLPHTTP:
		if e.Endpoint == "" {
			return fmt.Errorf("OTLP endpoint is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown exporter type: %s", e.Type)
	}
}
