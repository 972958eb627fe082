package observability

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"membership-api/internal/httpx"
)

const genericFaultMessage = "Internal Server Error"

var fallbackFaultBody = []byte(`{"statusCode":500,"message":"Internal Server Error","details":null}`)

// HandlerFunc is a handler that reports unexpected failures by returning them.
// Expected outcomes such as bad input or rejected credentials must be written
// by the handler itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// FaultTranslator turns panics and returned errors into a 500 APIError body.
// In development the body carries the error message and details; otherwise it
// carries a fixed message and null details. For panics the details hold the
// goroutine stack at the point of recovery. For returned errors they hold the
// %+v rendering of the error chain.
type FaultTranslator struct {
	logger      *Logger
	metrics     *Metrics
	development bool
}

func NewFaultTranslator(logger *Logger, metrics *Metrics, development bool) *FaultTranslator {
	return &FaultTranslator{
		logger:      logger,
		metrics:     metrics,
		development: development,
	}
}

// Middleware recovers any panic raised by next. http.ErrAbortHandler is
// re-panicked so net/http aborts the connection quietly.
func (f *FaultTranslator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := newStatusRecorder(w)
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				f.translate(recorder, r, panicError(rec), "panic", debug.Stack())
			}
		}()

		next.ServeHTTP(recorder, r)
	})
}

// Handle adapts fn into an http.Handler whose returned errors are translated.
func (f *FaultTranslator) Handle(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := newStatusRecorder(w)
		if err := fn(recorder, r); err != nil {
			f.translate(recorder, r, err, "error", nil)
		}
	})
}

func (f *FaultTranslator) translate(w *statusRecorder, r *http.Request, fault error, source string, stack []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			f.logger.Error("fault_translation_failed", map[string]any{
				"path":  r.URL.Path,
				"panic": fmt.Sprint(rec),
			})
		}
	}()

	message := fault.Error()
	trace := fmt.Sprintf("%+v", fault)
	if len(stack) > 0 {
		trace = fmt.Sprintf("%s\n\n%s", trace, stack)
	}

	f.logger.Error("request_fault", map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"source": source,
		"error":  message,
		"stack":  trace,
	})
	f.metrics.ObserveFault(source)
	captureFault(r, fault, source, stack)

	if w.wroteHeader {
		return
	}

	body := httpx.APIError{
		StatusCode: http.StatusInternalServerError,
		Message:    genericFaultMessage,
	}
	if f.development {
		body.Message = message
		body.Details = &trace
	}

	payload, err := json.Marshal(body)
	if err != nil {
		payload = fallbackFaultBody
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(payload)
}

func panicError(rec any) error {
	switch v := rec.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%v", v)
	}
}
