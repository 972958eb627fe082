// Package credential hashes and verifies account passwords.
//
// A password is stored as an HMAC-SHA-512 digest keyed with a per-account random
// salt. The salt is the HMAC key, so it is generated at the SHA-512 block size.
package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
)

const (
	// SaltSize matches the SHA-512 block size.
	SaltSize = sha512.BlockSize
	// DigestSize is the length of every digest produced by Hash.
	DigestSize = sha512.Size
)

var ErrMissingSalt = errors.New("credential: salt is required")

// Hash returns the keyed digest of secret. An empty secret is hashed like any
// other value; an empty salt is rejected.
func Hash(secret string, salt []byte) ([]byte, error) {
	if len(salt) == 0 {
		return nil, ErrMissingSalt
	}

	mac := hmac.New(sha512.New, salt)
	_, _ = mac.Write([]byte(secret))
	return mac.Sum(nil), nil
}

func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Verify reports whether candidate hashes to digest under salt. The comparison
// runs in constant time with respect to the digest contents.
func Verify(candidate string, digest, salt []byte) bool {
	if len(digest) != DigestSize {
		return false
	}

	computed, err := Hash(candidate, salt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(computed, digest) == 1
}

// Derive generates a fresh salt and the digest of secret under it.
func Derive(secret string) (digest, salt []byte, err error) {
	salt, err = GenerateSalt()
	if err != nil {
		return nil, nil, err
	}

	digest, err = Hash(secret, salt)
	if err != nil {
		return nil, nil, err
	}

	return digest, salt, nil
}
