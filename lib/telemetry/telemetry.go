// Package telemetry wires OpenTelemetry tracing and metrics and the process logger.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"bookmirror/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const ConfigName = "telemetry.json5"

type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (c OtlpConnConfig) enabled() bool {
	return c.GrpcEndpoint != "" || c.HttpEndpoint != ""
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

var (
	tracerProvider *trace.TracerProvider
	meterProvider  *metric.MeterProvider
)

// SetupFromEnv searches up the filesystem from the cwd for telemetry.json5 and sets
// up telemetry with it. A missing file is not an error, telemetry simply stays off.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	config, err := configutil.ReadRecursively[Config](ConfigName)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, config)
}

// Setup installs the global tracer and meter providers, signals without an
// endpoint configured keep the otel no-op providers.
func Setup(ctx context.Context, serviceName string, config Config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	if !config.Otlp.Traces.enabled() && !config.Otlp.Metrics.enabled() {
		slog.Debug("telemetry export disabled", "service", serviceName)
		return nil
	}

	r, err := newResource(serviceName)
	if err != nil {
		return err
	}

	if config.Otlp.Traces.enabled() {
		tracerProvider, err = newTraceProvider(ctx, r, config.Otlp.Traces)
		if err != nil {
			return err
		}
		otel.SetTracerProvider(tracerProvider)
	}

	if config.Otlp.Metrics.enabled() {
		meterProvider, err = newMetricProvider(ctx, r, config.Otlp.Metrics)
		if err != nil {
			return err
		}
		otel.SetMeterProvider(meterProvider)
	}

	return nil
}

// Shutdown flushes and stops whatever providers Setup installed.
func Shutdown(ctx context.Context) error {
	var errlist []error
	if tracerProvider != nil {
		err := tracerProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	if meterProvider != nil {
		err := meterProvider.Shutdown(ctx)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}
