package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"

	// AttrFile names the source file a record is about.
	AttrFile = "file"
	// AttrRule names the rule-set entry a record is about.
	AttrRule = "rule"
)

type logAttrsKey struct{}

// WithLogAttrs returns ctx carrying attrs, which every record logged through
// a jsmorph logger with that context gets. The batch runner adds the file
// and rule sets add the rule, so engine diagnostics say where they came from.
func WithLogAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	prev, _ := ctx.Value(logAttrsKey{}).([]slog.Attr)

	return context.WithValue(ctx, logAttrsKey{}, append(slices.Clip(prev), attrs...))
}

// LogAttrs returns the attributes attached to ctx by WithLogAttrs.
func LogAttrs(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(logAttrsKey{}).([]slog.Attr)

	return attrs
}

// NewLogger builds the jsmorph logger writing to w. The protocol modes (MCP,
// LSP) own stdout, so callers pass stderr there.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(w, opts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Environment, cfg.Mode))
}

// TracingHandler is an [slog.Handler] adding the service, mode and
// environment to every record, plus the trace and span ids and the
// WithLogAttrs attributes found in the record's context.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner. The service attributes are attached before
// any group so they stay at the top level.
func NewTracingHandler(inner slog.Handler, service, env string, mode AppMode) *TracingHandler {
	attrs := []slog.Attr{slog.String(attrService, service), slog.String(attrMode, string(mode))}
	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &TracingHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds the context attributes, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	record.AddAttrs(LogAttrs(ctx)...)

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs returns a handler with attrs added to the inner handler.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup returns a handler with the group opened on the inner handler.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
