// Package seed populates an empty database with sample members.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"membership-api/internal/account"
	"membership-api/internal/credential"
)

// DefaultPassword is the password every seeded member can log in with.
const DefaultPassword = "pa$$w0rd"

//go:embed data/users.json
var embeddedUsers []byte

type Store interface {
	HasAccounts(ctx context.Context) (bool, error)
	CreateAccount(ctx context.Context, account account.NewAccount) error
}

type seedPhoto struct {
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

type seedUser struct {
	UserName     string      `json:"userName"`
	Gender       string      `json:"gender"`
	DateOfBirth  date        `json:"dateOfBirth"`
	KnownAs      string      `json:"knownAs"`
	Created      time.Time   `json:"created"`
	LastActive   time.Time   `json:"lastActive"`
	Introduction string      `json:"introduction"`
	LookingFor   string      `json:"lookingFor"`
	Interests    string      `json:"interests"`
	City         string      `json:"city"`
	Country      string      `json:"country"`
	Photos       []seedPhoto `json:"photos"`
}

// date accepts both 2006-01-02 and RFC 3339 values.
type date time.Time

func (d *date) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	if s == "" {
		*d = date{}
		return nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		*d = date(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = date(t)
	return nil
}

// Data returns the seed file at path, or the embedded data when path is empty.
func Data(path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return embeddedUsers, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return data, nil
}

// Users inserts the members in data when the store has no accounts yet and
// reports how many were created.
func Users(ctx context.Context, store Store, data []byte) (int, error) {
	exists, err := store.HasAccounts(ctx)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	var users []seedUser
	if err := json.Unmarshal(data, &users); err != nil {
		return 0, fmt.Errorf("decode seed data: %w", err)
	}

	created := 0
	for _, u := range users {
		username := account.NormalizeUsername(u.UserName)
		if username == "" {
			return created, fmt.Errorf("seed user %d: empty username", created)
		}

		digest, salt, err := credential.Derive(DefaultPassword)
		if err != nil {
			return created, fmt.Errorf("derive credential for %s: %w", username, err)
		}

		photos := make([]account.SeedPhoto, 0, len(u.Photos))
		for _, p := range u.Photos {
			photos = append(photos, account.SeedPhoto{URL: p.URL, IsMain: p.IsMain})
		}

		if err := store.CreateAccount(ctx, account.NewAccount{
			Username:     username,
			PasswordHash: digest,
			PasswordSalt: salt,
			Profile: account.Profile{
				KnownAs:      u.KnownAs,
				Gender:       u.Gender,
				DateOfBirth:  time.Time(u.DateOfBirth),
				Introduction: u.Introduction,
				Interests:    u.Interests,
				LookingFor:   u.LookingFor,
				City:         u.City,
				Country:      u.Country,
				Created:      u.Created,
				LastActive:   u.LastActive,
			},
			Photos: photos,
		}); err != nil {
			return created, fmt.Errorf("create seed user %s: %w", username, err)
		}
		created++
	}

	return created, nil
}
