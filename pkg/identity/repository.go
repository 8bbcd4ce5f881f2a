package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for identity storage. Lookups and updates
// implicitly exclude tombstoned rows. Email uniqueness is enforced by the
// storage layer, not just here, so concurrent registrations cannot both
// succeed.
type Repository interface {
	// Create inserts a new identity. Returns ErrEmailTaken when a live
	// identity already holds the email.
	Create(ctx context.Context, params CreateParams) (*Identity, error)

	// GetByID retrieves a live identity by id
	GetByID(ctx context.Context, id uuid.UUID) (*Identity, error)

	// GetByEmail retrieves a live identity by case-insensitive email
	GetByEmail(ctx context.Context, email string) (*Identity, error)

	// Update applies a profile update
	Update(ctx context.Context, params UpdateParams) (*Identity, error)

	// UpdatePassword replaces the password hash
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error

	// Deactivate clears the active flag and tombstones the identity
	Deactivate(ctx context.Context, id uuid.UUID) error
}
