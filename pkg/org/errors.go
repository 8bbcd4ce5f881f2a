package org

import (
	"errors"
	"fmt"
)

var (
	// ErrOrganizationNotFound is returned when no live organization matches.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrMembershipNotFound is returned when no live membership matches.
	ErrMembershipNotFound = errors.New("membership not found")

	// ErrNotMember is returned when an identity resolves an organization it
	// has no active membership in. Surfaced as an authorization error, not
	// not-found, so strangers cannot probe for organization existence.
	ErrNotMember = errors.New("not a member of this organization")

	// ErrNoOrganization is returned when no organization id could be
	// determined at all; the caller should create or join one.
	ErrNoOrganization = errors.New("no organization: create or join one first")

	// ErrOwnerImmutable rejects direct changes to the owner membership; the
	// only sanctioned path is an explicit ownership transfer.
	ErrOwnerImmutable = errors.New("owner role can only change via ownership transfer")

	// ErrOwnerCannotLeave rejects removal or departure of the owner.
	ErrOwnerCannotLeave = errors.New("owner cannot leave without transferring ownership")

	// ErrTransferSourceNotOwner rejects a transfer initiated by a non-owner.
	ErrTransferSourceNotOwner = errors.New("transfer source is not the owner")

	// ErrTransferTargetInactive rejects a transfer to a member who is not
	// active in the organization.
	ErrTransferTargetInactive = errors.New("transfer target is not an active member")
)

// ErrAlreadyMember is returned when a live membership already exists for the
// (identity, organization) pair.
type ErrAlreadyMember struct {
	IdentityID     string
	OrganizationID string
}

func (e ErrAlreadyMember) Error() string {
	return fmt.Sprintf("identity %s is already a member of organization %s", e.IdentityID, e.OrganizationID)
}

// ErrSlugTaken is returned when an organization slug is already in use.
type ErrSlugTaken struct {
	Slug string
}

func (e ErrSlugTaken) Error() string {
	return fmt.Sprintf("organization slug already in use: %s", e.Slug)
}

// ErrUnknownRole is returned when a role label does not normalize to any
// canonical role.
type ErrUnknownRole struct {
	Role string
}

func (e ErrUnknownRole) Error() string {
	return fmt.Sprintf("unknown role: %s", e.Role)
}
