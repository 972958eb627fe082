package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Store interface {
	List(ctx context.Context) ([]Member, error)
	GetByUsername(ctx context.Context, username string) (Member, error)
	UpdateProfile(ctx context.Context, username string, update ProfileUpdate) error
	AddPhoto(ctx context.Context, username string, photo NewPhoto) (Photo, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const memberColumns = `
	id, username, known_as, gender, date_of_birth, created_at, last_active,
	COALESCE(introduction, ''), COALESCE(interests, ''), COALESCE(looking_for, ''),
	city, country`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (Member, error) {
	var m Member
	err := row.Scan(
		&m.ID, &m.Username, &m.KnownAs, &m.Gender, &m.DateOfBirth, &m.Created, &m.LastActive,
		&m.Introduction, &m.Interests, &m.LookingFor, &m.City, &m.Country,
	)
	return m, err
}

func (r *Repository) List(ctx context.Context) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT`+memberColumns+`
		FROM users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make([]Member, 0)
	index := make(map[string]int)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		index[m.ID] = len(members)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	if len(members) == 0 {
		return members, nil
	}

	photoRows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, url, public_id, is_main
		FROM photos
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer photoRows.Close()

	for photoRows.Next() {
		var p Photo
		var userID string
		if err := photoRows.Scan(&p.ID, &userID, &p.URL, &p.PublicID, &p.IsMain); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		if i, ok := index[userID]; ok {
			members[i].Photos = append(members[i].Photos, p)
		}
	}
	if err := photoRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photos: %w", err)
	}

	return members, nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, `SELECT`+memberColumns+`
		FROM users
		WHERE username = $1
	`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, fmt.Errorf("query member by username: %w", err)
	}

	photos, err := r.photosFor(ctx, m.ID)
	if err != nil {
		return Member{}, err
	}
	m.Photos = photos

	return m, nil
}

func (r *Repository) photosFor(ctx context.Context, userID string) ([]Photo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url, public_id, is_main
		FROM photos
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query member photos: %w", err)
	}
	defer rows.Close()

	photos := make([]Photo, 0)
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.URL, &p.PublicID, &p.IsMain); err != nil {
			return nil, fmt.Errorf("scan member photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member photos: %w", err)
	}

	return photos, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, username string, update ProfileUpdate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET introduction = $2, interests = $3, looking_for = $4, city = $5, country = $6
		WHERE username = $1
	`, username, update.Introduction, update.Interests, update.LookingFor, update.City, update.Country)
	if err != nil {
		return fmt.Errorf("update member profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member profile rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// AddPhoto stores a photo for the member. The first photo becomes the main one.
func (r *Repository) AddPhoto(ctx context.Context, username string, photo NewPhoto) (Photo, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Photo{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Photo{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1 FOR UPDATE`, username).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Photo{}, ErrNotFound
		}
		return Photo{}, fmt.Errorf("lock member: %w", err)
	}

	var hasMain bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM photos WHERE user_id = $1 AND is_main)`, userID).Scan(&hasMain); err != nil {
		return Photo{}, fmt.Errorf("check main photo: %w", err)
	}

	stored := Photo{ID: id.String(), URL: photo.URL, PublicID: photo.PublicID, IsMain: !hasMain}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO photos (id, user_id, url, public_id, is_main)
		VALUES ($1, $2, $3, $4, $5)
	`, stored.ID, userID, stored.URL, stored.PublicID, stored.IsMain); err != nil {
		return Photo{}, fmt.Errorf("insert photo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Photo{}, fmt.Errorf("commit transaction: %w", err)
	}

	return stored, nil
}
