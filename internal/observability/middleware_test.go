package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var logs bytes.Buffer
	metrics := NewMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{username}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/ghost", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	RequestLoggingMiddleware(NewLoggerTo(&logs), metrics, mux).ServeHTTP(rec, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "http_request", entry["message"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, "/api/users/ghost", entry["path"])
	assert.Equal(t, "203.0.113.7", entry["ip"])
	assert.Contains(t, entry, "timestamp")

	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.requests.WithLabelValues(http.MethodGet, "GET /api/users/{username}", "404"),
	))
}

func TestRequestLoggingMiddlewareSeesTranslatedFault(t *testing.T) {
	var logs bytes.Buffer
	logger := NewLoggerTo(&logs)
	translator := NewFaultTranslator(logger, nil, false)

	handler := RequestLoggingMiddleware(logger, nil, translator.Middleware(panicking("boom")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "http_request", entry["message"])
	assert.Equal(t, float64(http.StatusInternalServerError), entry["status"])
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveLogin("success")
	metrics.ObserveTokenIssued()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `auth_logins_total{result="success"} 1`)
	assert.Contains(t, rec.Body.String(), "auth_tokens_issued_total 1")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.ObserveLogin("failure")
		metrics.ObserveRegistration("success")
		metrics.ObserveTokenIssued()
		metrics.ObserveFault("panic")
	})
}

func TestLoggerWritesFields(t *testing.T) {
	var logs bytes.Buffer
	NewLoggerTo(&logs).Warn("seed_skipped", map[string]any{"reason": "users exist", "count": 3})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "seed_skipped", entry["message"])
	assert.Equal(t, "users exist", entry["reason"])
	assert.Equal(t, float64(3), entry["count"])
}
