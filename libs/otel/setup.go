// Package otelx configures OpenTelemetry tracing for the clinic service.
package otelx

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/md-rashed-zaman/campusclinic/libs/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Config struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string // host:port of the collector
	Insecure     bool
	SampleRatio  float64
}

// ConfigFromEnv reads the OTEL_* variables. Malformed values are reported
// instead of silently replaced.
func ConfigFromEnv(serviceName string) (Config, error) {
	cfg := Config{
		ServiceName:  serviceName,
		Environment:  config.String("DEPLOY_ENV", "development"),
		OTLPEndpoint: strings.TrimSpace(config.String("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317")),
	}
	var errs []error
	var err error
	cfg.Enabled, err = config.Bool("OTEL_ENABLED", true)
	errs = append(errs, err)
	cfg.Insecure, err = config.Bool("OTEL_EXPORTER_OTLP_INSECURE", true)
	errs = append(errs, err)
	cfg.SampleRatio, err = config.Float("OTEL_SAMPLING_RATIO", 1)
	errs = append(errs, err)
	if err == nil && (cfg.SampleRatio < 0 || cfg.SampleRatio > 1) {
		errs = append(errs, errors.New("OTEL_SAMPLING_RATIO must be within [0, 1]"))
	}
	return cfg, errors.Join(errs...)
}

// Setup installs the W3C propagators and, when enabled, a batching OTLP
// tracer provider. The returned func flushes and stops the provider.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithTimeout(3 * time.Second),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithHost(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
