// Package token issues and verifies the signed bearer tokens handed out at login.
//
// Tokens are HS512 JWTs carrying a closed set of claims: the identity id as the
// subject and the username as unique_name. They expire seven days after issuance
// and have no server-side record; there is no revocation.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinKeyLength is the smallest signing key HS512 accepts, in bytes.
	MinKeyLength = 64
	// Lifetime is how long an issued token stays valid.
	Lifetime = 7 * 24 * time.Hour
)

var signingMethod = jwt.SigningMethodHS512

var (
	ErrConfig             = errors.New("token configuration error")
	ErrSigningKeyMissing  = fmt.Errorf("%w: signing key is not set", ErrConfig)
	ErrSigningKeyTooShort = fmt.Errorf("%w: signing key must be at least %d bytes", ErrConfig, MinKeyLength)

	ErrInvalidIdentity = errors.New("token: identity id and username are required")

	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTokenInvalid    = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrTokenExpired    = fmt.Errorf("%w: token expired", ErrUnauthenticated)
)

// Identity is the authenticated principal a token is minted for.
type Identity struct {
	ID       string
	Username string
}

// Claims is what a verified token says about its bearer.
type Claims struct {
	Subject   string
	Username  string
	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
}

type wireClaims struct {
	UniqueName string `json:"unique_name"`
	jwt.RegisteredClaims
}

// ValidateKey reports whether key can sign HS512 tokens.
func ValidateKey(key string) error {
	if key == "" {
		return ErrSigningKeyMissing
	}
	if len([]byte(key)) < MinKeyLength {
		return ErrSigningKeyTooShort
	}
	return nil
}

type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock replaces the wall clock used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func copyKey(key string) []byte {
	return append([]byte(nil), key...)
}
