package store

import (
	"context"
	"fmt"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileStore defines the interface for profile data operations.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	SearchProfiles(ctx context.Context, query string, limit int) ([]*models.Profile, error)
}

// PostgresProfileStore implements the ProfileStore interface using PostgreSQL.
type PostgresProfileStore struct {
	db *pgxpool.Pool
}

// NewPostgresProfileStore creates a new PostgresProfileStore.
func NewPostgresProfileStore(db *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{
		db: db,
	}
}

const profileColumns = `id, username, full_name, email, avatar_url, whatsapp_number, hashed_password, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	profile := &models.Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.Username,
		&profile.FullName,
		&profile.Email,
		&profile.AvatarURL,
		&profile.WhatsappNumber,
		&profile.HashedPassword,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateProfile inserts a new profile. profile.ID and the password hash must
// already be set by the caller.
func (s *PostgresProfileStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	query := `
        INSERT INTO profiles (id, username, full_name, email, avatar_url, whatsapp_number, hashed_password, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := s.db.Exec(ctx, query,
		profile.ID,
		profile.Username,
		profile.FullName,
		profile.Email,
		profile.AvatarURL,
		profile.WhatsappNumber,
		profile.HashedPassword,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		pgErr, ok := err.(*pgconn.PgError)
		if ok && pgErr.Code == "23505" { // unique_violation
			if pgErr.ConstraintName == "profiles_email_key" {
				return ErrEmailExists
			}
			if pgErr.ConstraintName == "profiles_username_key" {
				return ErrUsernameExists
			}
			return fmt.Errorf("database unique constraint violation: %w, constraint: %s", err, pgErr.ConstraintName)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetProfileByEmail retrieves a profile by email address.
func (s *PostgresProfileStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`

	profile, err := scanProfile(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return profile, nil
}

// GetProfileByID retrieves a profile by ID. pgx handles the UUID conversion
// from the string form.
func (s *PostgresProfileStore) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by ID: %w", err)
	}
	return profile, nil
}

// SearchProfiles matches usernames and full names case-insensitively.
func (s *PostgresProfileStore) SearchProfiles(ctx context.Context, query string, limit int) ([]*models.Profile, error) {
	sqlQuery := `
        SELECT ` + profileColumns + `
        FROM profiles
        WHERE username ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%'
        ORDER BY username
        LIMIT $2
    `
	rows, err := s.db.Query(ctx, sqlQuery, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile rows: %w", err)
	}
	return profiles, nil
}

var (
	ErrProfileNotFound = fmt.Errorf("profile not found")
	ErrEmailExists     = fmt.Errorf("email already exists")
	ErrUsernameExists  = fmt.Errorf("username already exists")
)
