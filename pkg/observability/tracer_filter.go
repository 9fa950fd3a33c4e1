package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// SpanBatchFile is the span the batch runner opens for each file.
const SpanBatchFile = "jsmorph.batch.file"

// quietSpans are the spans dropped, together with everything started below
// them, unless verbose tracing is on. A batch run over thousands of files
// would otherwise export one file span plus one engine span per file.
//
//nolint:gochecknoglobals // read-only lookup table.
var quietSpans = map[string]bool{
	SpanBatchFile: true,
}

type quietKey struct{}

// filteringTracerProvider drops quiet spans and their descendants. Engine
// spans started from an HTTP request, an MCP tool call or a single CLI run
// are exported with their attributes; the same spans inside a batch file are
// not.
type filteringTracerProvider struct {
	embedded.TracerProvider

	delegate trace.TracerProvider
	noop     trace.TracerProvider
}

// NewFilteringTracerProvider wraps delegate with per-file span suppression.
func NewFilteringTracerProvider(delegate trace.TracerProvider) trace.TracerProvider {
	return &filteringTracerProvider{
		delegate: delegate,
		noop:     nooptrace.NewTracerProvider(),
	}
}

// Tracer returns a tracer that honors the quiet-span rules.
func (f *filteringTracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &filteringTracer{
		delegate: f.delegate.Tracer(name, opts...),
		noop:     f.noop.Tracer(name, opts...),
	}
}

type filteringTracer struct {
	embedded.Tracer

	delegate trace.Tracer
	noop     trace.Tracer
}

// Start opens a no-op span for quiet names and for any span below one, and
// marks the returned context so later children stay quiet too.
func (f *filteringTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !quietSpans[name] && ctx.Value(quietKey{}) == nil {
		return f.delegate.Start(ctx, name, opts...)
	}

	ctx, span := f.noop.Start(ctx, name, opts...)

	return context.WithValue(ctx, quietKey{}, true), span
}
