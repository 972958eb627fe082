package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-api/internal/httpx"
)

func newTranslator(development bool) (*FaultTranslator, *bytes.Buffer, *Metrics) {
	var logs bytes.Buffer
	metrics := NewMetrics()
	return NewFaultTranslator(NewLoggerTo(&logs), metrics, development), &logs, metrics
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) httpx.APIError {
	t.Helper()
	var body httpx.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func panicking(value any) http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(value)
	})
}

func TestMiddlewareNoFaultPassesThrough(t *testing.T) {
	translator, logs, _ := newTranslator(false)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	translator.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, logs.String())
}

func TestMiddlewareDevelopmentReturnsDetailedError(t *testing.T) {
	translator, _, _ := newTranslator(true)

	rec := httptest.NewRecorder()
	translator.Middleware(panicking(errors.New("Test exception"))).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/exceptions", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeAPIError(t, rec)
	assert.Equal(t, http.StatusInternalServerError, body.StatusCode)
	assert.Equal(t, "Test exception", body.Message)
	require.NotNil(t, body.Details)
	assert.NotEmpty(t, *body.Details)
	assert.Contains(t, *body.Details, "goroutine")
}

func TestMiddlewareProductionReturnsGenericError(t *testing.T) {
	translator, _, _ := newTranslator(false)

	rec := httptest.NewRecorder()
	translator.Middleware(panicking(errors.New("Sensitive information"))).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "Sensitive information")

	body := decodeAPIError(t, rec)
	assert.Equal(t, http.StatusInternalServerError, body.StatusCode)
	assert.Equal(t, "Internal Server Error", body.Message)
	assert.Nil(t, body.Details)
	assert.JSONEq(t, `{"statusCode":500,"message":"Internal Server Error","details":null}`, rec.Body.String())
}

func TestMiddlewareLogsFaultRegardlessOfEnvironment(t *testing.T) {
	for _, development := range []bool{true, false} {
		t.Run(fmt.Sprintf("development=%t", development), func(t *testing.T) {
			translator, logs, metrics := newTranslator(development)

			rec := httptest.NewRecorder()
			translator.Middleware(panicking(errors.New("Test exception"))).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
			assert.Equal(t, "error", entry["level"])
			assert.Equal(t, "request_fault", entry["message"])
			assert.Equal(t, "Test exception", entry["error"])
			assert.Contains(t, entry["stack"], "goroutine")
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.faults.WithLabelValues("panic")))
		})
	}
}

func TestMiddlewareHandlesAnyPanicValue(t *testing.T) {
	values := []any{
		errors.New("invalid op"),
		"not supported",
		42,
		struct{ Reason string }{Reason: "unauthorized"},
	}

	for _, value := range values {
		t.Run(fmt.Sprintf("%T", value), func(t *testing.T) {
			translator, _, _ := newTranslator(true)

			rec := httptest.NewRecorder()
			translator.Middleware(panicking(value)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeAPIError(t, rec)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestHandleTranslatesReturnedError(t *testing.T) {
	translator, logs, metrics := newTranslator(true)
	handler := translator.Handle(func(http.ResponseWriter, *http.Request) error {
		return fmt.Errorf("load members: %w", errors.New("connection refused"))
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeAPIError(t, rec)
	assert.Equal(t, "load members: connection refused", body.Message)
	require.NotNil(t, body.Details)
	assert.Contains(t, logs.String(), "connection refused")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.faults.WithLabelValues("error")))
}

func TestHandleProductionHidesReturnedError(t *testing.T) {
	translator, _, _ := newTranslator(false)
	handler := translator.Handle(func(http.ResponseWriter, *http.Request) error {
		return errors.New("dial tcp 10.0.0.3:5432: connection refused")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := decodeAPIError(t, rec)
	assert.Equal(t, "Internal Server Error", body.Message)
	assert.Nil(t, body.Details)
}

func TestHandleWithoutErrorLeavesResponseAlone(t *testing.T) {
	translator, logs, _ := newTranslator(false)
	handler := translator.Handle(func(w http.ResponseWriter, r *http.Request) error {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return nil
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Empty(t, logs.String())
}

func TestFaultAfterResponseCommittedOnlyLogs(t *testing.T) {
	translator, logs, _ := newTranslator(true)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		panic("late failure")
	})

	rec := httptest.NewRecorder()
	translator.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
	assert.Contains(t, logs.String(), "late failure")
}

func TestNestedTranslatorsHandleFaultOnce(t *testing.T) {
	translator, logs, metrics := newTranslator(false)
	handler := translator.Middleware(translator.Handle(func(http.ResponseWriter, *http.Request) error {
		return errors.New("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("request_fault")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.faults.WithLabelValues("error")))
}

func TestMiddlewareRepanicsAbortHandler(t *testing.T) {
	translator, logs, metrics := newTranslator(true)

	rec := httptest.NewRecorder()
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		translator.Middleware(panicking(http.ErrAbortHandler)).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Empty(t, rec.Body.String())
	assert.Empty(t, logs.String())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.faults.WithLabelValues("panic")))
}

func TestHandleDetailsDescribeErrorChain(t *testing.T) {
	translator, _, _ := newTranslator(true)
	handler := translator.Handle(func(http.ResponseWriter, *http.Request) error {
		return fmt.Errorf("load members: %w", errors.New("connection refused"))
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	body := decodeAPIError(t, rec)
	require.NotNil(t, body.Details)
	assert.Equal(t, "load members: connection refused", *body.Details)
	assert.NotContains(t, *body.Details, "goroutine")
}
