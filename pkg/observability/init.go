package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	tracerName = "jsmorph"
	meterName  = "jsmorph"

	attrAppMode = "app.mode"

	shutdownTimeout = 5 * time.Second
)

// Providers holds the telemetry of one jsmorph process.
type Providers struct {
	// Tracer is handed to the engine and the batch runner.
	Tracer trace.Tracer

	// Meter creates the RED and rule instruments of the server and MCP modes.
	Meter metric.Meter

	// Logger is also installed as the slog default.
	Logger *slog.Logger

	// Shutdown flushes pending telemetry. Call it before exit.
	Shutdown func(ctx context.Context) error
}

// Init sets up logging on stderr for every mode and, when OTLPEndpoint is
// set, OTLP trace and metric export. Without an endpoint the tracer and
// meter are no-ops and nothing leaves the process.
func Init(cfg Config) (Providers, error) {
	logger := NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	if cfg.OTLPEndpoint == "" {
		return Providers{
			Tracer:   nooptrace.NewTracerProvider().Tracer(tracerName),
			Meter:    noopmetric.NewMeterProvider().Meter(meterName),
			Logger:   logger,
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}

	ctx := context.Background()

	res, err := buildResource(cfg)
	if err != nil {
		return Providers{}, err
	}

	spans, err := otlptracegrpc.New(ctx, traceExportOptions(cfg)...)
	if err != nil {
		return Providers{}, fmt.Errorf("create trace exporter: %w", err)
	}

	metrics, err := otlpmetricgrpc.New(ctx, metricExportOptions(cfg)...)
	if err != nil {
		return Providers{}, errors.Join(fmt.Errorf("create metric exporter: %w", err), spans.Shutdown(ctx))
	}

	tracing, sdkTracing := newTracing(cfg, res, spans)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tracing)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return Providers{
		Tracer: tracing.Tracer(tracerName),
		Meter:  mp.Meter(meterName),
		Logger: logger,
		Shutdown: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			return errors.Join(sdkTracing.Shutdown(ctx), mp.Shutdown(ctx))
		},
	}, nil
}

// newTracing builds the SDK provider exporting to exporter through the
// attribute filter, and the provider jsmorph code should use: the SDK one
// itself with TraceVerbose, else one that drops per-file spans.
func newTracing(
	cfg Config, res *resource.Resource, exporter sdktrace.SpanExporter,
) (trace.TracerProvider, *sdktrace.TracerProvider) {
	var filterLogger *slog.Logger
	if cfg.DebugTrace {
		filterLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewAttributeFilter(sdktrace.NewBatchSpanProcessor(exporter), filterLogger)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg)),
	)

	if cfg.TraceVerbose {
		return sdk, sdk
	}

	return NewFilteringTracerProvider(sdk), sdk
}

// sampler samples everything under --verbose, SampleRatio of root traces
// when it is below one, and otherwise follows the parent.
func sampler(cfg Config) sdktrace.Sampler {
	switch {
	case cfg.DebugTrace:
		return sdktrace.AlwaysSample()
	case cfg.SampleRatio > 0 && cfg.SampleRatio < 1:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

func buildResource(cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		attribute.String(attrAppMode, string(cfg.Mode)),
	}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

func traceExportOptions(cfg Config) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.OTLPHeaders))
	}

	return opts
}

func metricExportOptions(cfg Config) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders))
	}

	return opts
}
