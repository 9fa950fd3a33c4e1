package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const prometheusMeterName = "jsmorph.server"

// Prometheus is a pull-based metrics pipeline: instruments created from
// Meter are served by Handler in the Prometheus exposition format.
type Prometheus struct {
	// Handler serves the /metrics scrape endpoint.
	Handler http.Handler
	// Meter creates instruments exported through Handler.
	Meter metric.Meter

	provider *sdkmetric.MeterProvider
}

// NewPrometheus creates a Prometheus exporter backed by its own OTel
// MeterProvider and registry, so several instances never collide.
func NewPrometheus() (*Prometheus, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return &Prometheus{
		Handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Meter:    provider.Meter(prometheusMeterName),
		provider: provider,
	}, nil
}
