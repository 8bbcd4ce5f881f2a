package org

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for organization and membership storage.
// Lookups implicitly exclude tombstoned rows. The (identity, organization)
// membership uniqueness and the slug uniqueness are enforced by storage-level
// unique indexes, not just here.
type Repository interface {
	// CreateWithOwner inserts an organization and its owner membership as one
	// transaction; the creator becomes the owner.
	CreateWithOwner(ctx context.Context, organization Organization, ownerID uuid.UUID) (*Organization, *Membership, error)

	// GetOrganization retrieves a live organization by id
	GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error)

	// CreateMembership inserts a membership. Returns ErrAlreadyMember when a
	// live membership already exists for the pair.
	CreateMembership(ctx context.Context, params CreateMembershipParams) (*Membership, error)

	// GetMembership retrieves the live membership for (identity, organization)
	GetMembership(ctx context.Context, identityID, organizationID uuid.UUID) (*Membership, error)

	// OldestActiveMembership returns the identity's earliest-created active
	// membership, the deterministic default organization.
	OldestActiveMembership(ctx context.Context, identityID uuid.UUID) (*Membership, error)

	// ListByIdentity lists the identity's live memberships, oldest first
	ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]Membership, error)

	// ListMembers lists an organization's live memberships
	ListMembers(ctx context.Context, organizationID uuid.UUID) ([]Membership, error)

	// UpdateMembershipRole replaces a membership's role label
	UpdateMembershipRole(ctx context.Context, membershipID uuid.UUID, role string) (*Membership, error)

	// RemoveMembership tombstones a membership
	RemoveMembership(ctx context.Context, membershipID uuid.UUID) error

	// TransferOwnership atomically demotes the current owner membership to
	// admin and promotes the target membership to owner.
	TransferOwnership(ctx context.Context, fromMembershipID, toMembershipID uuid.UUID) error
}
