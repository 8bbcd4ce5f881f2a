package org

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/rbac"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/utils"
)

// Service provides organization and membership business logic
type Service struct {
	repo Repository
}

// NewService creates a new org service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// CreateOrganization creates an organization; the creator becomes its owner.
func (s *Service) CreateOrganization(ctx context.Context, creatorID uuid.UUID, name string, plan PlanTier) (*Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("organization name cannot be empty")
	}
	if plan == "" {
		plan = PlanFree
	}

	slug := utils.Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("organization name yields an empty slug")
	}

	organization, _, err := s.repo.CreateWithOwner(ctx, Organization{
		Name: name,
		Slug: slug,
		Plan: plan,
	}, creatorID)
	if err != nil {
		return nil, err
	}
	slog.Info("Created organization", "organization_id", organization.ID, "owner_id", creatorID)
	return organization, nil
}

// GetOrganization retrieves a live organization
func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return s.repo.GetOrganization(ctx, id)
}

// AcceptInvite creates an active membership for the identity. The role label
// must normalize to a canonical role and may not be owner; ownership only
// arises from organization creation or transfer.
func (s *Service) AcceptInvite(ctx context.Context, identityID, organizationID uuid.UUID, role string) (*Membership, error) {
	if role == "" {
		role = string(rbac.RoleMember)
	}
	canonical, ok := rbac.Normalize(role)
	if !ok {
		return nil, ErrUnknownRole{Role: role}
	}
	if canonical == rbac.RoleOwner {
		return nil, ErrOwnerImmutable
	}

	return s.repo.CreateMembership(ctx, CreateMembershipParams{
		IdentityID:     identityID,
		OrganizationID: organizationID,
		Role:           role,
		Status:         StatusActive,
	})
}

// UpdateMemberRole reassigns a member's role. The owner membership is
// immutable here, and no one can be promoted to owner outside
// TransferOwnership.
func (s *Service) UpdateMemberRole(ctx context.Context, organizationID, targetID uuid.UUID, newRole string) (*Membership, error) {
	canonical, ok := rbac.Normalize(newRole)
	if !ok {
		return nil, ErrUnknownRole{Role: newRole}
	}
	if canonical == rbac.RoleOwner {
		return nil, ErrOwnerImmutable
	}

	membership, err := s.repo.GetMembership(ctx, targetID, organizationID)
	if err != nil {
		return nil, err
	}
	if current, ok := rbac.Normalize(membership.Role); ok && current == rbac.RoleOwner {
		return nil, ErrOwnerImmutable
	}

	return s.repo.UpdateMembershipRole(ctx, membership.ID, newRole)
}

// RemoveMember tombstones a member's membership. The owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, organizationID, targetID uuid.UUID) error {
	membership, err := s.repo.GetMembership(ctx, targetID, organizationID)
	if err != nil {
		return err
	}
	if role, ok := rbac.Normalize(membership.Role); ok && role == rbac.RoleOwner {
		return ErrOwnerCannotLeave
	}
	return s.repo.RemoveMembership(ctx, membership.ID)
}

// Leave is a voluntary departure; same rule, the owner must transfer first.
func (s *Service) Leave(ctx context.Context, organizationID, identityID uuid.UUID) error {
	return s.RemoveMember(ctx, organizationID, identityID)
}

// TransferOwnership moves the owner role from one active member to another.
// This is the only path that changes who holds the owner role.
func (s *Service) TransferOwnership(ctx context.Context, organizationID, fromID, toID uuid.UUID) error {
	from, err := s.repo.GetMembership(ctx, fromID, organizationID)
	if err != nil {
		return err
	}
	if role, ok := rbac.Normalize(from.Role); !ok || role != rbac.RoleOwner {
		return ErrTransferSourceNotOwner
	}

	to, err := s.repo.GetMembership(ctx, toID, organizationID)
	if err != nil {
		return err
	}
	if !to.IsActive() {
		return ErrTransferTargetInactive
	}

	if err := s.repo.TransferOwnership(ctx, from.ID, to.ID); err != nil {
		return err
	}
	slog.Info("Transferred ownership", "organization_id", organizationID, "from", fromID, "to", toID)
	return nil
}

// ListMembers lists an organization's memberships
func (s *Service) ListMembers(ctx context.Context, organizationID uuid.UUID) ([]Membership, error) {
	return s.repo.ListMembers(ctx, organizationID)
}

// ListByIdentity lists the identity's memberships, oldest first
func (s *Service) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]Membership, error) {
	return s.repo.ListByIdentity(ctx, identityID)
}

// ActiveRole returns the raw role label of the identity's active membership.
// It implements rbac.MembershipSource for the permission checker.
func (s *Service) ActiveRole(ctx context.Context, identityID, organizationID uuid.UUID) (string, error) {
	membership, err := s.repo.GetMembership(ctx, identityID, organizationID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return "", rbac.ErrNoMembership
		}
		return "", err
	}
	if !membership.IsActive() {
		return "", rbac.ErrNoMembership
	}
	return membership.Role, nil
}
