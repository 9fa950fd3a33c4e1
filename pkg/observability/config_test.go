package observability_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/jsmorph/pkg/config"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
)

func TestDefaultConfig_HasSensibleDefaults(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "jsmorph", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.False(t, cfg.DebugTrace)
	assert.Empty(t, cfg.ServiceVersion)
	assert.Empty(t, cfg.Environment)
}

func TestFromAppConfig(t *testing.T) {
	t.Parallel()

	app := config.Default()
	app.Logging.Level = "debug"
	app.Logging.Format = "json"
	app.Telemetry.OTLPEndpoint = "collector:4317"
	app.Telemetry.OTLPHeaders = "a=1,b=2"
	app.Telemetry.SampleRatio = 0.5

	cfg := observability.FromAppConfig(app, observability.ModeServe, "1.0.0")

	assert.Equal(t, observability.ModeServe, cfg.Mode)
	assert.Equal(t, "1.0.0", cfg.ServiceVersion)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, cfg.OTLPHeaders)
	assert.InDelta(t, 0.5, cfg.SampleRatio, 1e-9)
	assert.Equal(t, "jsmorph", cfg.ServiceName)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single", "authorization=Bearer abc", map[string]string{"authorization": "Bearer abc"}},
		{"multiple", "k1=v1,k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"spaces", " k1 = v1 , k2 = v2 ", map[string]string{"k1": "v1", "k2": "v2"}},
		{"pair without equals skipped", "junk,k=v", map[string]string{"k": "v"}},
		{"nothing usable", "junk", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.input))
		})
	}
}
