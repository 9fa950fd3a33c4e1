package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
)

func scrape(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	return rec
}

func TestPrometheus_ServesMetrics(t *testing.T) {
	t.Parallel()

	prom, err := observability.NewPrometheus()
	require.NoError(t, err)

	rec := scrape(t, prom.Handler)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "target_info")
}

func TestPrometheus_ExportsMeterInstruments(t *testing.T) {
	t.Parallel()

	prom, err := observability.NewPrometheus()
	require.NoError(t, err)

	red, err := observability.NewREDMetrics(prom.Meter)
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "POST /api/rewrite", observability.StatusOK, 5*time.Millisecond)

	body := scrape(t, prom.Handler).Body.String()
	assert.Regexp(t, `jsmorph.requests.total`, body)
	assert.Regexp(t, `jsmorph.request.duration.seconds`, body)
}
