package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterDefault()
		RegisterDefault()
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	RouteQueries.WithLabelValues("ok").Inc()
	HTTPRequests.WithLabelValues("GET", "/api/v1/health", "200").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "route_queries_total")
	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRouteQueriesCounter(t *testing.T) {
	before := testutil.ToFloat64(RouteQueries.WithLabelValues("no_route"))
	RouteQueries.WithLabelValues("no_route").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RouteQueries.WithLabelValues("no_route")))
}
