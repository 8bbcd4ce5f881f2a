package session

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for session storage. Every lookup and
// update implicitly excludes soft-deleted rows.
type Repository interface {
	// Create a new session lineage
	Create(ctx context.Context, params CreateParams) (*Session, error)

	// Get a session by its rotation id
	GetByRotationID(ctx context.Context, rotationID string) (*Session, error)

	// Rotate atomically swaps the lineage id and token hash, conditional on
	// the old pair still being current. Returns ErrRotationConflict when the
	// condition fails.
	Rotate(ctx context.Context, params RotateParams) (*Session, error)

	// Revoke deactivates and soft-deletes a single session by rotation id
	Revoke(ctx context.Context, rotationID string) error

	// RevokeAllByIdentity deactivates every active session for an identity,
	// returning the number of sessions revoked
	RevokeAllByIdentity(ctx context.Context, identityID uuid.UUID) (int, error)

	// ListActiveByIdentity lists the identity's live sessions for the session
	// management surface
	ListActiveByIdentity(ctx context.Context, identityID uuid.UUID) ([]Session, error)

	// Touch updates the last-activity timestamp
	Touch(ctx context.Context, rotationID string) error

	// DeleteExpired removes long-expired rows (housekeeping; expiry is also
	// enforced at read time)
	DeleteExpired(ctx context.Context) error
}
