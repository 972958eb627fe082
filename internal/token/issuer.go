package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints tokens. The key is copied at construction and never mutated, so
// an Issuer is safe for concurrent use.
type Issuer struct {
	key      []byte
	settings settings
}

func NewIssuer(signingKey string, opts ...Option) *Issuer {
	return &Issuer{
		key:      copyKey(signingKey),
		settings: newSettings(opts),
	}
}

// Validate reports a configuration error when the issuer cannot sign.
func (i *Issuer) Validate() error {
	return ValidateKey(string(i.key))
}

// CreateToken returns a signed token for identity that expires Lifetime from now.
func (i *Issuer) CreateToken(identity Identity) (string, error) {
	if err := i.Validate(); err != nil {
		return "", err
	}
	if identity.ID == "" || identity.Username == "" {
		return "", ErrInvalidIdentity
	}

	now := i.settings.now().UTC()
	claims := wireClaims{
		UniqueName: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(Lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}

	return signed, nil
}
