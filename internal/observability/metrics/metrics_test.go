package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRoutePath(t *testing.T) {
	assert.Equal(t, "/api/dreams", RoutePath("/api/dreams"))
	assert.Equal(t, "/api/dreams/{id}", RoutePath("/api/dreams/8f1c"))
	assert.Equal(t, "/api/matches/{id}/accept", RoutePath("/api/matches/abc/accept"))
	assert.Equal(t, "/healthz", RoutePath("/healthz"))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	h := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/dreams/{id}", "418"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dreams/d1", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/dreams/{id}", "418"))
	assert.Equal(t, before+1, after)
}

func TestObserveSubmission(t *testing.T) {
	before := testutil.ToFloat64(matchesGenerated.WithLabelValues("structured"))
	ObserveSubmission("structured", 10, 3, 0)
	assert.Equal(t, before+3, testutil.ToFloat64(matchesGenerated.WithLabelValues("structured")))
}
