package config

// Server defaults.
const (
	DefaultServerHost         = "127.0.0.1"
	DefaultServerPort         = 8080
	DefaultServerReadTimeout  = "30s"
	DefaultServerWriteTimeout = "30s"
	DefaultServerIdleTimeout  = "60s"
	DefaultServerMaxBodySize  = "4MB"
)

// Batch defaults.
const (
	DefaultBatchWorkers         = 0
	DefaultBatchMaxFileSize     = "1MB"
	DefaultBatchIncludeVendored = false
)

// Logging defaults.
const (
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"
)

// Telemetry defaults.
const (
	DefaultTelemetrySampleRatio = 0.0
)

// DefaultBatchExtensions returns the file extensions batch runs keep.
func DefaultBatchExtensions() []string {
	return []string{".js", ".mjs", ".cjs"}
}
