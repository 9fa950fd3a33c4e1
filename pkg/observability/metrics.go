package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "jsmorph.requests.total"
	metricRequestDuration  = "jsmorph.request.duration.seconds"
	metricErrorsTotal      = "jsmorph.errors.total"
	metricInflightRequests = "jsmorph.inflight.requests"

	metricMatchesTotal     = "jsmorph.rule.matches.total"
	metricEditsTotal       = "jsmorph.rule.edits.total"
	metricDiagnosticsTotal = "jsmorph.rule.diagnostics.total"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// durationBucketBoundaries covers 1ms to 30s: single-rule requests are
// sub-millisecond to tens of milliseconds, rule sets over large files longer.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOp, op),
		))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// RuleMetrics counts what rules do: matches found, edits applied and
// unsupported-node diagnostics raised.
type RuleMetrics struct {
	matches     metric.Int64Counter
	edits       metric.Int64Counter
	diagnostics metric.Int64Counter
}

// RuleStats holds the counts of one search or rewrite.
type RuleStats struct {
	Matches     int
	Edits       int
	Diagnostics int
}

// NewRuleMetrics creates rule metric instruments from the given meter.
func NewRuleMetrics(mt metric.Meter) (*RuleMetrics, error) {
	matches, err := mt.Int64Counter(metricMatchesTotal,
		metric.WithDescription("Total pattern matches"),
		metric.WithUnit("{match}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMatchesTotal, err)
	}

	edits, err := mt.Int64Counter(metricEditsTotal,
		metric.WithDescription("Total rewrite edits applied"),
		metric.WithUnit("{edit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEditsTotal, err)
	}

	diagnostics, err := mt.Int64Counter(metricDiagnosticsTotal,
		metric.WithDescription("Total unsupported-node diagnostics"),
		metric.WithUnit("{diagnostic}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDiagnosticsTotal, err)
	}

	return &RuleMetrics{matches: matches, edits: edits, diagnostics: diagnostics}, nil
}

// Record adds the counts of one operation.
func (rm *RuleMetrics) Record(ctx context.Context, op string, stats RuleStats) {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))

	rm.matches.Add(ctx, int64(stats.Matches), attrs)
	rm.edits.Add(ctx, int64(stats.Edits), attrs)
	rm.diagnostics.Add(ctx, int64(stats.Diagnostics), attrs)
}
