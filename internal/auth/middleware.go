// Package auth authenticates requests carrying a bearer token.
package auth

import (
	"context"
	"net/http"
	"strings"

	"membership-api/internal/httpx"
	"membership-api/internal/token"
)

// Verifier is the part of token.Verifier the middleware needs.
type Verifier interface {
	Verify(raw string) (token.Claims, error)
}

type claimsKey struct{}

// Middleware rejects requests without a valid bearer token with 401 and
// otherwise exposes the token claims through ClaimsFrom.
func Middleware(verifier Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid authorization token")
			return
		}

		claims, err := verifier.Verify(tokenStr)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func WithClaims(ctx context.Context, claims token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFrom(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(token.Claims)
	return claims, ok
}
