// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for every jsmorph mode (CLI, server, MCP, LSP).
package observability

import (
	"log/slog"
	"strings"

	"github.com/Sumatoshi-tech/jsmorph/pkg/config"
)

// AppMode identifies the application execution mode.
type AppMode string

const (
	// ModeCLI is the one-shot command mode.
	ModeCLI AppMode = "cli"
	// ModeServe is the HTTP server mode.
	ModeServe AppMode = "serve"
	// ModeMCP is the MCP stdio server mode.
	ModeMCP AppMode = "mcp"
	// ModeLSP is the language server mode.
	ModeLSP AppMode = "lsp"
)

const defaultServiceName = "jsmorph"

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "production", "dev").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// DebugTrace forces 100% trace sampling.
	DebugTrace bool

	// SampleRatio is the trace sampling ratio when DebugTrace is false.
	// Zero samples every root span.
	SampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// TraceVerbose keeps per-file search and rewrite spans.
	TraceVerbose bool

	// LogJSON enables JSON-formatted log output.
	LogJSON bool
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName: defaultServiceName,
		Mode:        ModeCLI,
		LogLevel:    slog.LevelInfo,
	}
}

// FromAppConfig derives the observability settings for mode from the
// logging and telemetry sections of the application config.
func FromAppConfig(app *config.Config, mode AppMode, version string) Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.ServiceVersion = version
	cfg.LogLevel = app.Logging.SlogLevel()
	cfg.LogJSON = app.Logging.JSON()
	cfg.Environment = app.Telemetry.Environment
	cfg.OTLPEndpoint = app.Telemetry.OTLPEndpoint
	cfg.OTLPHeaders = ParseOTLPHeaders(app.Telemetry.OTLPHeaders)
	cfg.OTLPInsecure = app.Telemetry.OTLPInsecure
	cfg.SampleRatio = app.Telemetry.SampleRatio
	cfg.TraceVerbose = app.Telemetry.TraceVerbose

	return cfg
}

// ParseOTLPHeaders parses telemetry.otlp_headers, a "key=value,key=value"
// list. Pairs without "=" are ignored; nil means no headers.
func ParseOTLPHeaders(raw string) map[string]string {
	var headers map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return headers
}
