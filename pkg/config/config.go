// Package config provides configuration loading and validation for jsmorph.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidWorkers     = errors.New("batch workers must not be negative")
	ErrInvalidSize        = errors.New("invalid size")
	ErrInvalidExtension   = errors.New("batch extensions must start with a dot")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("telemetry sample ratio must be within [0, 1]")
)

const (
	envPrefix      = "JSMORPH"
	configName     = ".jsmorph"
	maxPort        = 65535
	formatJSON     = "json"
	formatText     = "text"
	systemConfDir  = "/etc/jsmorph"
	homeConfigPath = "$HOME"
)

// Config holds all configuration for jsmorph.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Rules     RulesConfig     `mapstructure:"rules"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Port         int           `mapstructure:"port"`
	// MaxBodySize caps request bodies, e.g. "4MB".
	MaxBodySize string `mapstructure:"max_body_size"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxBodyBytes parses MaxBodySize.
func (s ServerConfig) MaxBodyBytes() (uint64, error) {
	return parseSize(s.MaxBodySize)
}

// BatchConfig holds multi-file run configuration.
type BatchConfig struct {
	// Workers is the pool size; 0 means one per CPU.
	Workers int `mapstructure:"workers"`
	// MaxFileSize skips larger files, e.g. "1MB". Empty or "0" disables the limit.
	MaxFileSize     string   `mapstructure:"max_file_size"`
	IncludeVendored bool     `mapstructure:"include_vendored"`
	Extensions      []string `mapstructure:"extensions"`
}

// MaxFileSizeBytes parses MaxFileSize.
func (b BatchConfig) MaxFileSizeBytes() (uint64, error) {
	return parseSize(b.MaxFileSize)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlogLevel returns the configured level.
func (l LoggingConfig) SlogLevel() slog.Level {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

// JSON reports whether logs are written as JSON.
func (l LoggingConfig) JSON() bool {
	return strings.EqualFold(l.Format, formatJSON)
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	// OTLPHeaders uses the "key=value,key=value" form.
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
	TraceVerbose bool    `mapstructure:"trace_verbose"`
}

// RulesConfig holds rule-set configuration.
type RulesConfig struct {
	// File is the rule set used by "apply", "lsp" and "mcp" when none is given.
	File string `mapstructure:"file"`
}

// LoadConfig loads configuration from file and environment variables.
// An explicit path must exist; without one, a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath(homeConfigPath)
		viperCfg.AddConfigPath(systemConfDir)
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults always decode.
	_ = viperCfg.Unmarshal(&config)

	return &config
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultServerIdleTimeout)
	viperCfg.SetDefault("server.max_body_size", DefaultServerMaxBodySize)

	viperCfg.SetDefault("batch.workers", DefaultBatchWorkers)
	viperCfg.SetDefault("batch.max_file_size", DefaultBatchMaxFileSize)
	viperCfg.SetDefault("batch.include_vendored", DefaultBatchIncludeVendored)
	viperCfg.SetDefault("batch.extensions", DefaultBatchExtensions())

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.format", DefaultLoggingFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.trace_verbose", false)

	viperCfg.SetDefault("rules.file", "")
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	if _, err := config.Server.MaxBodyBytes(); err != nil {
		return err
	}

	if config.Batch.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Batch.Workers)
	}

	if _, err := config.Batch.MaxFileSizeBytes(); err != nil {
		return err
	}

	for _, ext := range config.Batch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
		}
	}

	if _, err := ParseLevel(config.Logging.Level); err != nil {
		return err
	}

	format := strings.ToLower(config.Logging.Format)
	if format != formatJSON && format != formatText {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}

// ParseLevel parses a slog level name (debug, info, warn, error).
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}

	return level, nil
}

func parseSize(size string) (uint64, error) {
	if size == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidSize, size, err)
	}

	return n, nil
}
