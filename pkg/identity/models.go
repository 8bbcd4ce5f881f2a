package identity

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the immutable user record. Deletion tombstones the row; it is
// never physically removed.
type Identity struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	PasswordHash []byte     `json:"-"`
	Active       bool       `json:"active"`
	Superadmin   bool       `json:"superadmin,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// CanAuthenticate reports whether the identity may establish a session.
func (i *Identity) CanAuthenticate() bool {
	return i.Active && i.DeletedAt == nil
}

// RegisterParams are the inputs for creating an identity.
type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

// CreateParams are the repository-level inputs for inserting an identity.
type CreateParams struct {
	Email        string
	Name         string
	PasswordHash []byte
	Superadmin   bool
}

// UpdateParams are the repository-level inputs for a profile update.
type UpdateParams struct {
	ID    uuid.UUID
	Email string
	Name  string
}
