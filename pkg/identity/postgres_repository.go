package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/utils"
)

const uniqueViolationCode = "23505"

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL identity repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

const identityColumns = `
	id, email, name, password_hash, active, superadmin,
	created_at, updated_at, deleted_at
`

func scanIdentity(row pgx.Row) (*Identity, error) {
	identity := &Identity{}
	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&identity.PasswordHash,
		&identity.Active,
		&identity.Superadmin,
		&identity.CreatedAt,
		&identity.UpdatedAt,
		&identity.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// Create inserts a new identity. The partial unique index on lower(email)
// makes concurrent registrations race on the insert, not on application code.
func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (*Identity, error) {
	query := `
		INSERT INTO identities (email, name, password_hash, superadmin)
		VALUES ($1, $2, $3, $4)
		RETURNING` + identityColumns

	identity, err := scanIdentity(r.pool.QueryRow(ctx, query,
		utils.NormalizeEmail(params.Email),
		params.Name,
		params.PasswordHash,
		params.Superadmin,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrEmailTaken{Email: params.Email}
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	return identity, nil
}

// GetByID retrieves a live identity by id
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	query := `
		SELECT` + identityColumns + `
		FROM identities
		WHERE id = $1 AND deleted_at IS NULL
	`

	identity, err := scanIdentity(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return identity, nil
}

// GetByEmail retrieves a live identity by case-insensitive email
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	query := `
		SELECT` + identityColumns + `
		FROM identities
		WHERE lower(email) = $1 AND deleted_at IS NULL
	`

	identity, err := scanIdentity(r.pool.QueryRow(ctx, query, utils.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get identity by email: %w", err)
	}
	return identity, nil
}

// Update applies a profile update
func (r *PostgresRepository) Update(ctx context.Context, params UpdateParams) (*Identity, error) {
	query := `
		UPDATE identities
		SET email = $1, name = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING` + identityColumns

	identity, err := scanIdentity(r.pool.QueryRow(ctx, query,
		utils.NormalizeEmail(params.Email),
		params.Name,
		params.ID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrEmailTaken{Email: params.Email}
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update identity: %w", err)
	}
	return identity, nil
}

// UpdatePassword replaces the password hash
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error {
	query := `
		UPDATE identities
		SET password_hash = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate clears the active flag and tombstones the identity
func (r *PostgresRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE identities
		SET active = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
