package account

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"membership-api/internal/credential"
	"membership-api/internal/token"
)

type TokenIssuer interface {
	CreateToken(identity token.Identity) (string, error)
}

// decoySalt keys the hash computed for unknown usernames so that a miss costs
// the same as a wrong password.
var decoySalt = bytes.Repeat([]byte{0x5a}, credential.SaltSize)

type Service struct {
	store  Store
	issuer TokenIssuer
}

func NewService(store Store, issuer TokenIssuer) *Service {
	return &Service{store: store, issuer: issuer}
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *Service) Login(ctx context.Context, username, password string) (Result, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return Result{}, ErrInvalidCredentials
	}

	cred, err := s.store.FindCredentialByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			credential.Verify(password, decoySalt[:credential.DigestSize], decoySalt)
			return Result{}, ErrInvalidCredentials
		}
		return Result{}, err
	}

	if !credential.Verify(password, cred.PasswordHash, cred.PasswordSalt) {
		return Result{}, ErrInvalidCredentials
	}

	return s.issue(token.Identity{ID: cred.IdentityID, Username: cred.Username})
}

func (s *Service) Register(ctx context.Context, username, password string) (Result, error) {
	username = NormalizeUsername(username)

	exists, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{}, ErrUsernameTaken
	}

	digest, salt, err := credential.Derive(password)
	if err != nil {
		return Result{}, fmt.Errorf("derive credential: %w", err)
	}

	if err := s.store.CreateAccount(ctx, NewAccount{
		Username:     username,
		PasswordHash: digest,
		PasswordSalt: salt,
	}); err != nil {
		return Result{}, err
	}

	identity, err := s.store.FindIdentityByUsername(ctx, username)
	if err != nil {
		return Result{}, fmt.Errorf("load registered identity: %w", err)
	}

	return s.issue(identity)
}

func (s *Service) issue(identity token.Identity) (Result, error) {
	signed, err := s.issuer.CreateToken(identity)
	if err != nil {
		return Result{}, fmt.Errorf("create token: %w", err)
	}
	return Result{Username: identity.Username, Token: signed}, nil
}
