package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL session repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

const sessionColumns = `
	id, identity_id, rotation_id, token_hash, ip_address, user_agent,
	active, last_activity, expires_at, created_at, updated_at, deleted_at
`

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.ID,
		&session.IdentityID,
		&session.RotationID,
		&session.TokenHash,
		&session.IPAddress,
		&session.UserAgent,
		&session.Active,
		&session.LastActivity,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Create creates a new session
func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (*Session, error) {
	query := `
		INSERT INTO sessions (
			identity_id, rotation_id, token_hash, ip_address, user_agent, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING` + sessionColumns

	session, err := scanSession(r.pool.QueryRow(ctx, query,
		params.IdentityID,
		params.RotationID,
		params.TokenHash,
		params.IPAddress,
		params.UserAgent,
		params.ExpiresAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetByRotationID retrieves a live session by its rotation id
func (r *PostgresRepository) GetByRotationID(ctx context.Context, rotationID string) (*Session, error) {
	query := `
		SELECT` + sessionColumns + `
		FROM sessions
		WHERE rotation_id = $1 AND deleted_at IS NULL
	`

	session, err := scanSession(r.pool.QueryRow(ctx, query, rotationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// Rotate swaps the rotation id and token hash in a single conditional update.
// Two concurrent refreshes presenting the same token race on this statement;
// exactly one matches the old pair and wins.
func (r *PostgresRepository) Rotate(ctx context.Context, params RotateParams) (*Session, error) {
	query := `
		UPDATE sessions
		SET rotation_id = $1,
		    token_hash = $2,
		    expires_at = $3,
		    last_activity = NOW(),
		    updated_at = NOW()
		WHERE rotation_id = $4
		  AND token_hash = $5
		  AND active = TRUE
		  AND deleted_at IS NULL
		  AND expires_at > NOW()
		RETURNING` + sessionColumns

	session, err := scanSession(r.pool.QueryRow(ctx, query,
		params.NewRotationID,
		params.NewTokenHash,
		params.ExpiresAt,
		params.OldRotationID,
		params.OldTokenHash,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRotationConflict
		}
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}
	return session, nil
}

// Revoke deactivates and soft-deletes a session by rotation id
func (r *PostgresRepository) Revoke(ctx context.Context, rotationID string) error {
	query := `
		UPDATE sessions
		SET active = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE rotation_id = $1 AND deleted_at IS NULL
	`

	if _, err := r.pool.Exec(ctx, query, rotationID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevokeAllByIdentity deactivates every active session for an identity
func (r *PostgresRepository) RevokeAllByIdentity(ctx context.Context, identityID uuid.UUID) (int, error) {
	query := `
		UPDATE sessions
		SET active = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE identity_id = $1 AND active = TRUE AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, identityID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListActiveByIdentity lists the identity's live sessions
func (r *PostgresRepository) ListActiveByIdentity(ctx context.Context, identityID uuid.UUID) ([]Session, error) {
	query := `
		SELECT` + sessionColumns + `
		FROM sessions
		WHERE identity_id = $1
		  AND active = TRUE
		  AND deleted_at IS NULL
		  AND expires_at > NOW()
		ORDER BY last_activity DESC
	`

	rows, err := r.pool.Query(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// Touch updates the last-activity timestamp
func (r *PostgresRepository) Touch(ctx context.Context, rotationID string) error {
	query := `
		UPDATE sessions
		SET last_activity = NOW(), updated_at = NOW()
		WHERE rotation_id = $1 AND deleted_at IS NULL
	`

	if _, err := r.pool.Exec(ctx, query, rotationID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired more than 30 days ago
func (r *PostgresRepository) DeleteExpired(ctx context.Context) error {
	query := `DELETE FROM sessions WHERE expires_at < NOW() - INTERVAL '30 days'`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
