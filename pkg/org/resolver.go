package org

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ResolveInput carries everything the resolver needs for one request.
// Explicit is the organization id the request named (path, query, body or
// header — the transport layer applies that precedence before calling here);
// Cached is the id already resolved earlier for the same identity, if any.
type ResolveInput struct {
	IdentityID uuid.UUID
	Superadmin bool
	Explicit   uuid.UUID
	Cached     uuid.UUID
}

// Resolver binds a request to exactly one organization id and verifies the
// identity may operate in it.
type Resolver struct {
	repo Repository
}

// NewResolver creates a new tenant resolver
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve determines the organization id for a request. Precedence: the
// explicitly named id, then the cached id, then the identity's oldest active
// membership. With no candidate at all it returns ErrNoOrganization.
//
// Ordinary identities must hold an active membership in the resolved
// organization; absence is ErrNotMember, an authorization failure, so
// strangers never learn whether the organization exists. Superadmins skip the
// membership check but still need an explicit or derivable organization id.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (uuid.UUID, error) {
	candidate := in.Explicit
	if candidate == uuid.Nil {
		candidate = in.Cached
	}

	if candidate == uuid.Nil {
		membership, err := r.repo.OldestActiveMembership(ctx, in.IdentityID)
		if err != nil {
			if errors.Is(err, ErrMembershipNotFound) {
				return uuid.Nil, ErrNoOrganization
			}
			return uuid.Nil, err
		}
		// the fallback membership is the verification
		return membership.OrganizationID, nil
	}

	if in.Superadmin {
		return candidate, nil
	}

	membership, err := r.repo.GetMembership(ctx, in.IdentityID, candidate)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return uuid.Nil, ErrNotMember
		}
		return uuid.Nil, err
	}
	if !membership.IsActive() {
		return uuid.Nil, ErrNotMember
	}
	return candidate, nil
}
