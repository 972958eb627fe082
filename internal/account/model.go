// Package account owns stored credentials and the login and registration flows.
package account

import (
	"context"
	"errors"
	"time"

	"membership-api/internal/token"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrUsernameTaken      = errors.New("username is taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Credential is the stored secret material for one identity. Username is
// always lower-cased.
type Credential struct {
	IdentityID   string
	Username     string
	PasswordHash []byte
	PasswordSalt []byte
}

type Profile struct {
	KnownAs      string
	Gender       string
	DateOfBirth  time.Time
	Introduction string
	Interests    string
	LookingFor   string
	City         string
	Country      string
	Created      time.Time
	LastActive   time.Time
}

type SeedPhoto struct {
	URL    string
	IsMain bool
}

type NewAccount struct {
	Username     string
	PasswordHash []byte
	PasswordSalt []byte
	Profile      Profile
	Photos       []SeedPhoto
}

type Store interface {
	FindCredentialByUsername(ctx context.Context, username string) (Credential, error)
	FindIdentityByUsername(ctx context.Context, username string) (token.Identity, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	HasAccounts(ctx context.Context) (bool, error)
	CreateAccount(ctx context.Context, account NewAccount) error
}

// Result is returned to the client after a successful login or registration.
type Result struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}
