package observability_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
)

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var body map[string]string

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestHealthHandler_ReturnsOKWithVersion(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	observability.HealthHandler("1.2.3").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeHealth(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
}

func TestReadyHandler(t *testing.T) {
	t.Parallel()

	pass := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("parser unavailable") }

	tests := []struct {
		name   string
		checks []observability.ReadyCheck
		code   int
		status string
	}{
		{name: "no checks", code: http.StatusOK, status: "ok"},
		{name: "all pass", checks: []observability.ReadyCheck{pass, pass}, code: http.StatusOK, status: "ok"},
		{name: "one fails", checks: []observability.ReadyCheck{pass, fail}, code: http.StatusServiceUnavailable, status: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			observability.ReadyHandler(tt.checks...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.status, decodeHealth(t, rec)["status"])
		})
	}
}
