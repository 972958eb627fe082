// Package diagnostics exposes endpoints that deliberately fail so the fault
// pipeline can be observed end to end.
package diagnostics

import (
	"errors"
	"net/http"
)

var ErrTestException = errors.New("Test exception")

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// TestException fails through the returned-error path.
func (h *Handler) TestException(http.ResponseWriter, *http.Request) error {
	return ErrTestException
}

// ServerError fails through the panic path.
func (h *Handler) ServerError(http.ResponseWriter, *http.Request) {
	panic(errors.New("Server go explode"))
}
