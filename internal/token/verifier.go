package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks tokens produced by an Issuer holding the same key. Issuer and
// audience are not checked: tokens are only ever minted and consumed by this
// service.
type Verifier struct {
	key      []byte
	settings settings
}

func NewVerifier(signingKey string, opts ...Option) *Verifier {
	return &Verifier{
		key:      copyKey(signingKey),
		settings: newSettings(opts),
	}
}

// Verify returns the claims of a valid token. Every rejection wraps
// ErrUnauthenticated.
func (v *Verifier) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrTokenInvalid
	}
	if err := ValidateKey(string(v.key)); err != nil {
		return Claims{}, err
	}

	var claims wireClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.settings.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.UniqueName == "" {
		return Claims{}, ErrTokenInvalid
	}

	out := Claims{
		Subject:  claims.Subject,
		Username: claims.UniqueName,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.NotBefore != nil {
		out.NotBefore = claims.NotBefore.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}

	return out, nil
}
