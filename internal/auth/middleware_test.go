package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-api/internal/httpx"
	"membership-api/internal/token"
)

const testKey = "super_secret_test_key_that_is_at_least_64_characters_long_for_testing_purposes_1234567890"

func protected(t *testing.T, verifier Verifier) (http.Handler, *token.Claims) {
	t.Helper()
	var seen token.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		require.True(t, ok)
		seen = claims
		w.WriteHeader(http.StatusOK)
	})
	return Middleware(verifier, next), &seen
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	signed, err := token.NewIssuer(testKey).CreateToken(token.Identity{ID: "7", Username: "finley"})
	require.NoError(t, err)

	handler, seen := protected(t, token.NewVerifier(testKey))
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", seen.Subject)
	assert.Equal(t, "finley", seen.Username)
}

func TestMiddlewareSchemeIsCaseInsensitive(t *testing.T) {
	signed, err := token.NewIssuer(testKey).CreateToken(token.Identity{ID: "7", Username: "finley"})
	require.NoError(t, err)

	handler, _ := protected(t, token.NewVerifier(testKey))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareRejections(t *testing.T) {
	expiredAt := time.Now().Add(-8 * 24 * time.Hour)
	expired, err := token.NewIssuer(testKey, token.WithClock(func() time.Time { return expiredAt })).
		CreateToken(token.Identity{ID: "7", Username: "finley"})
	require.NoError(t, err)

	foreign, err := token.NewIssuer(strings.Repeat("z", token.MinKeyLength)).
		CreateToken(token.Identity{ID: "7", Username: "finley"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "bad token", header: "Bearer bad-token"},
		{name: "bad token with space", header: "Bearer bad token"},
		{name: "wrong scheme", header: "Basic Zmlua2V5OnBhc3M="},
		{name: "scheme only", header: "Bearer"},
		{name: "empty token", header: "Bearer   "},
		{name: "expired token", header: "Bearer " + expired},
		{name: "foreign key", header: "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Middleware(token.NewVerifier(testKey), next).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body httpx.APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
			assert.Nil(t, body.Details)
		})
	}
}

func TestClaimsFromEmptyContext(t *testing.T) {
	_, ok := ClaimsFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
