package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used by every package.
const TracerName = "github.com/TrevorS/clustersearch"

// Tracer returns the tracer of the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// SetupTracing installs a global tracer provider that writes spans as
// pretty-printed JSON to path. An empty path leaves the no-op provider in
// place.
//
// Outputs:
//   - shutdown: flushes pending spans and closes the file. Always non-nil.
//   - error: non-nil if the file or exporter cannot be created.
func SetupTracing(path, version string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if path == "" {
		return noop, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return noop, fmt.Errorf("telemetry: create trace file: %w", err)
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(f), stdouttrace.WithPrettyPrint())
	if err != nil {
		f.Close()
		return noop, fmt.Errorf("telemetry: create exporter: %w", err)
	}
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "clustersearch"),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), f.Close())
	}, nil
}
