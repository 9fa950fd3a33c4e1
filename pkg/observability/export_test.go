package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// BuildResource exposes buildResource for testing.
var BuildResource = buildResource

// Tracing builds the tracer provider Init installs for cfg, exporting to
// exporter instead of OTLP. flush pushes batched spans to exporter.
func Tracing(cfg Config, exporter sdktrace.SpanExporter) (tp trace.TracerProvider, flush func()) {
	tp, sdk := newTracing(cfg, resource.Empty(), exporter)

	return tp, func() { _ = sdk.ForceFlush(context.Background()) }
}

// RootSampled reports whether the sampler Init picks for cfg keeps a root
// span with traceID.
func RootSampled(cfg Config, traceID trace.TraceID) bool {
	result := sampler(cfg).ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       traceID,
		Name:          "jsmorph.rewrite",
	})

	return result.Decision == sdktrace.RecordAndSample
}
