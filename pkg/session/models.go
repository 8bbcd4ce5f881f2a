package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the durable record of one refresh-token lineage. RotationID and
// TokenHash are replaced together on every successful refresh; the previous
// refresh token becomes unusable the moment they change.
type Session struct {
	ID           uuid.UUID  `json:"id"`
	IdentityID   uuid.UUID  `json:"identity_id"`
	RotationID   string     `json:"rotation_id"`
	TokenHash    string     `json:"-"`
	IPAddress    string     `json:"ip_address,omitempty"`
	UserAgent    string     `json:"user_agent,omitempty"`
	Active       bool       `json:"active"`
	LastActivity time.Time  `json:"last_activity"`
	ExpiresAt    time.Time  `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// IsExpired checks the record's own expiry. It is the authoritative
// cross-check against the signed token's expiry claim.
func (s *Session) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}

// IsUsable reports whether the session may still back a refresh.
func (s *Session) IsUsable() bool {
	return s.Active && s.DeletedAt == nil && !s.IsExpired()
}

// CreateParams are the inputs for creating a session at login/registration.
type CreateParams struct {
	IdentityID uuid.UUID
	RotationID string
	TokenHash  string
	IPAddress  string
	UserAgent  string
	ExpiresAt  time.Time
}

// RotateParams describe one rotation step. The update only applies when the
// stored (rotation id, token hash) pair still matches the Old values, which is
// what makes a presented refresh token single-use.
type RotateParams struct {
	OldRotationID string
	OldTokenHash  string
	NewRotationID string
	NewTokenHash  string
	ExpiresAt     time.Time
}
