package org

import (
	"time"

	"github.com/google/uuid"
)

// PlanTier is the organization's billing plan.
type PlanTier string

const (
	PlanFree       PlanTier = "free"
	PlanTeam       PlanTier = "team"
	PlanEnterprise PlanTier = "enterprise"
)

// Organization is the tenant boundary. Every tenant-scoped entity carries an
// organization id and filters on it.
type Organization struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Plan      PlanTier   `json:"plan"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// MembershipStatus is the lifecycle state of a membership.
type MembershipStatus string

const (
	StatusActive    MembershipStatus = "active"
	StatusInvited   MembershipStatus = "invited"
	StatusSuspended MembershipStatus = "suspended"
)

// Membership grants an identity a role within one organization. At most one
// live membership exists per (identity, organization) pair; the storage layer
// enforces that with a unique index.
type Membership struct {
	ID             uuid.UUID        `json:"id"`
	IdentityID     uuid.UUID        `json:"identity_id"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	Role           string           `json:"role"`
	Status         MembershipStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      *time.Time       `json:"deleted_at,omitempty"`
}

// IsActive reports whether the membership currently grants access.
func (m *Membership) IsActive() bool {
	return m.Status == StatusActive && m.DeletedAt == nil
}

// CreateMembershipParams are the repository-level inputs for inserting a
// membership.
type CreateMembershipParams struct {
	IdentityID     uuid.UUID
	OrganizationID uuid.UUID
	Role           string
	Status         MembershipStatus
}
