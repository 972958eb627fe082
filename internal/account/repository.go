package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"membership-api/internal/token"
)

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindCredentialByUsername(ctx context.Context, username string) (Credential, error) {
	var cred Credential
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, password_salt
		FROM users
		WHERE username = $1
	`, username).Scan(&cred.IdentityID, &cred.Username, &cred.PasswordHash, &cred.PasswordSalt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, fmt.Errorf("query credential by username: %w", err)
	}

	return cred, nil
}

func (r *Repository) FindIdentityByUsername(ctx context.Context, username string) (token.Identity, error) {
	var identity token.Identity
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username
		FROM users
		WHERE username = $1
	`, username).Scan(&identity.ID, &identity.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return token.Identity{}, ErrNotFound
		}
		return token.Identity{}, fmt.Errorf("query identity by username: %w", err)
	}

	return identity, nil
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (r *Repository) HasAccounts(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check accounts: %w", err)
	}
	return exists, nil
}

func (r *Repository) CreateAccount(ctx context.Context, account NewAccount) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	profile := account.Profile
	if profile.Created.IsZero() {
		profile.Created = now
	}
	if profile.LastActive.IsZero() {
		profile.LastActive = now
	}
	if profile.DateOfBirth.IsZero() {
		profile.DateOfBirth = profile.Created
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (
			id, username, password_hash, password_salt, date_of_birth, known_as, gender,
			introduction, interests, looking_for, city, country, created_at, last_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		id.String(), account.Username, account.PasswordHash, account.PasswordSalt,
		profile.DateOfBirth, profile.KnownAs, profile.Gender,
		profile.Introduction, profile.Interests, profile.LookingFor,
		profile.City, profile.Country, profile.Created, profile.LastActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	for _, photo := range account.Photos {
		photoID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate photo uuid v7: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO photos (id, user_id, url, is_main)
			VALUES ($1, $2, $3, $4)
		`, photoID.String(), id.String(), photo.URL, photo.IsMain); err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
