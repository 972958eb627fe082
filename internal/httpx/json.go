// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
)

const MaxJSONBodyBytes = 1 << 20

var ErrInvalidJSON = errors.New("invalid json body")

// APIError is the body of every error response.
type APIError struct {
	StatusCode int     `json:"statusCode"`
	Message    string  `json:"message"`
	Details    *string `json:"details"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, APIError{StatusCode: status, Message: message})
}

// DecodeJSON reads a single JSON object into dst. Fields dst does not declare
// are ignored. Bodies over MaxJSONBodyBytes are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decode(w, r, dst, false)
}

// DecodeStrictJSON is DecodeJSON but also rejects unknown fields.
func DecodeStrictJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, strict bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	return nil
}
