package org

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemRepository is an in-memory implementation of Repository for tests. The
// membership and slug uniqueness checks run under the same mutex hold as the
// inserts, mirroring the unique indexes in the Postgres schema.
type InMemRepository struct {
	mu            sync.Mutex
	organizations map[uuid.UUID]*Organization
	memberships   map[uuid.UUID]*Membership
}

// NewInMemRepository creates a new in-memory org repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		organizations: make(map[uuid.UUID]*Organization),
		memberships:   make(map[uuid.UUID]*Membership),
	}
}

func (r *InMemRepository) CreateWithOwner(ctx context.Context, organization Organization, ownerID uuid.UUID) (*Organization, *Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.organizations {
		if existing.DeletedAt == nil && existing.Slug == organization.Slug {
			return nil, nil, ErrSlugTaken{Slug: organization.Slug}
		}
	}

	now := time.Now().UTC()
	created := organization
	created.ID = uuid.New()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.organizations[created.ID] = &created

	membership := &Membership{
		ID:             uuid.New(),
		IdentityID:     ownerID,
		OrganizationID: created.ID,
		Role:           "owner",
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.memberships[membership.ID] = membership

	orgCopy := created
	memberCopy := *membership
	return &orgCopy, &memberCopy, nil
}

func (r *InMemRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	organization, ok := r.organizations[id]
	if !ok || organization.DeletedAt != nil {
		return nil, ErrOrganizationNotFound
	}
	copied := *organization
	return &copied, nil
}

func (r *InMemRepository) CreateMembership(ctx context.Context, params CreateMembershipParams) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.memberships {
		if existing.DeletedAt == nil &&
			existing.IdentityID == params.IdentityID &&
			existing.OrganizationID == params.OrganizationID {
			return nil, ErrAlreadyMember{
				IdentityID:     params.IdentityID.String(),
				OrganizationID: params.OrganizationID.String(),
			}
		}
	}

	now := time.Now().UTC()
	membership := &Membership{
		ID:             uuid.New(),
		IdentityID:     params.IdentityID,
		OrganizationID: params.OrganizationID,
		Role:           params.Role,
		Status:         params.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.memberships[membership.ID] = membership

	copied := *membership
	return &copied, nil
}

func (r *InMemRepository) GetMembership(ctx context.Context, identityID, organizationID uuid.UUID) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, membership := range r.memberships {
		if membership.DeletedAt == nil &&
			membership.IdentityID == identityID &&
			membership.OrganizationID == organizationID {
			copied := *membership
			return &copied, nil
		}
	}
	return nil, ErrMembershipNotFound
}

func (r *InMemRepository) OldestActiveMembership(ctx context.Context, identityID uuid.UUID) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var oldest *Membership
	for _, membership := range r.memberships {
		if membership.IdentityID != identityID || !membership.IsActive() {
			continue
		}
		if oldest == nil || membership.CreatedAt.Before(oldest.CreatedAt) {
			oldest = membership
		}
	}
	if oldest == nil {
		return nil, ErrMembershipNotFound
	}
	copied := *oldest
	return &copied, nil
}

func (r *InMemRepository) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var memberships []Membership
	for _, membership := range r.memberships {
		if membership.DeletedAt == nil && membership.IdentityID == identityID {
			memberships = append(memberships, *membership)
		}
	}
	sortByCreated(memberships)
	return memberships, nil
}

func (r *InMemRepository) ListMembers(ctx context.Context, organizationID uuid.UUID) ([]Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var memberships []Membership
	for _, membership := range r.memberships {
		if membership.DeletedAt == nil && membership.OrganizationID == organizationID {
			memberships = append(memberships, *membership)
		}
	}
	sortByCreated(memberships)
	return memberships, nil
}

func sortByCreated(memberships []Membership) {
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].CreatedAt.Before(memberships[j].CreatedAt)
	})
}

func (r *InMemRepository) UpdateMembershipRole(ctx context.Context, membershipID uuid.UUID, role string) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership, ok := r.memberships[membershipID]
	if !ok || membership.DeletedAt != nil {
		return nil, ErrMembershipNotFound
	}
	membership.Role = role
	membership.UpdatedAt = time.Now().UTC()

	copied := *membership
	return &copied, nil
}

func (r *InMemRepository) RemoveMembership(ctx context.Context, membershipID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	membership, ok := r.memberships[membershipID]
	if !ok || membership.DeletedAt != nil {
		return ErrMembershipNotFound
	}
	now := time.Now().UTC()
	membership.DeletedAt = &now
	membership.UpdatedAt = now
	return nil
}

func (r *InMemRepository) TransferOwnership(ctx context.Context, fromMembershipID, toMembershipID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	from, ok := r.memberships[fromMembershipID]
	if !ok || from.DeletedAt != nil {
		return ErrMembershipNotFound
	}
	to, ok := r.memberships[toMembershipID]
	if !ok || to.DeletedAt != nil {
		return ErrMembershipNotFound
	}

	now := time.Now().UTC()
	from.Role = "admin"
	from.UpdatedAt = now
	to.Role = "owner"
	to.UpdatedAt = now
	return nil
}
