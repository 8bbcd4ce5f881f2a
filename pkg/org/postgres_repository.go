package org

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL org repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

const organizationColumns = `id, name, slug, plan, created_at, updated_at, deleted_at`

const membershipColumns = `
	id, identity_id, organization_id, role, status, created_at, updated_at, deleted_at
`

func scanOrganization(row pgx.Row) (*Organization, error) {
	organization := &Organization{}
	err := row.Scan(
		&organization.ID,
		&organization.Name,
		&organization.Slug,
		&organization.Plan,
		&organization.CreatedAt,
		&organization.UpdatedAt,
		&organization.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return organization, nil
}

func scanMembership(row pgx.Row) (*Membership, error) {
	membership := &Membership{}
	err := row.Scan(
		&membership.ID,
		&membership.IdentityID,
		&membership.OrganizationID,
		&membership.Role,
		&membership.Status,
		&membership.CreatedAt,
		&membership.UpdatedAt,
		&membership.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// CreateWithOwner inserts the organization and its owner membership in one
// transaction so a crash cannot leave an ownerless organization.
func (r *PostgresRepository) CreateWithOwner(ctx context.Context, organization Organization, ownerID uuid.UUID) (*Organization, *Membership, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orgQuery := `
		INSERT INTO organizations (name, slug, plan)
		VALUES ($1, $2, $3)
		RETURNING ` + organizationColumns

	created, err := scanOrganization(tx.QueryRow(ctx, orgQuery,
		organization.Name,
		organization.Slug,
		organization.Plan,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, nil, ErrSlugTaken{Slug: organization.Slug}
		}
		return nil, nil, fmt.Errorf("failed to create organization: %w", err)
	}

	memberQuery := `
		INSERT INTO memberships (identity_id, organization_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING` + membershipColumns

	membership, err := scanMembership(tx.QueryRow(ctx, memberQuery,
		ownerID,
		created.ID,
		"owner",
		StatusActive,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit: %w", err)
	}
	return created, membership, nil
}

// GetOrganization retrieves a live organization by id
func (r *PostgresRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE id = $1 AND deleted_at IS NULL
	`

	organization, err := scanOrganization(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return organization, nil
}

// CreateMembership inserts a membership. The partial unique index on
// (identity_id, organization_id) makes concurrent invite-accepts race on the
// insert; the loser sees ErrAlreadyMember.
func (r *PostgresRepository) CreateMembership(ctx context.Context, params CreateMembershipParams) (*Membership, error) {
	query := `
		INSERT INTO memberships (identity_id, organization_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING` + membershipColumns

	membership, err := scanMembership(r.pool.QueryRow(ctx, query,
		params.IdentityID,
		params.OrganizationID,
		params.Role,
		params.Status,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrAlreadyMember{
				IdentityID:     params.IdentityID.String(),
				OrganizationID: params.OrganizationID.String(),
			}
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	return membership, nil
}

// GetMembership retrieves the live membership for (identity, organization)
func (r *PostgresRepository) GetMembership(ctx context.Context, identityID, organizationID uuid.UUID) (*Membership, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM memberships
		WHERE identity_id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`

	membership, err := scanMembership(r.pool.QueryRow(ctx, query, identityID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return membership, nil
}

// OldestActiveMembership returns the identity's earliest-created active
// membership
func (r *PostgresRepository) OldestActiveMembership(ctx context.Context, identityID uuid.UUID) (*Membership, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM memberships
		WHERE identity_id = $1 AND status = 'active' AND deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT 1
	`

	membership, err := scanMembership(r.pool.QueryRow(ctx, query, identityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get oldest membership: %w", err)
	}
	return membership, nil
}

// ListByIdentity lists the identity's live memberships, oldest first
func (r *PostgresRepository) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]Membership, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM memberships
		WHERE identity_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	return r.listMemberships(ctx, query, identityID)
}

// ListMembers lists an organization's live memberships
func (r *PostgresRepository) ListMembers(ctx context.Context, organizationID uuid.UUID) ([]Membership, error) {
	query := `
		SELECT` + membershipColumns + `
		FROM memberships
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	return r.listMemberships(ctx, query, organizationID)
}

func (r *PostgresRepository) listMemberships(ctx context.Context, query string, arg any) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, *membership)
	}
	return memberships, rows.Err()
}

// UpdateMembershipRole replaces a membership's role label
func (r *PostgresRepository) UpdateMembershipRole(ctx context.Context, membershipID uuid.UUID, role string) (*Membership, error) {
	query := `
		UPDATE memberships
		SET role = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING` + membershipColumns

	membership, err := scanMembership(r.pool.QueryRow(ctx, query, role, membershipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to update membership role: %w", err)
	}
	return membership, nil
}

// RemoveMembership tombstones a membership
func (r *PostgresRepository) RemoveMembership(ctx context.Context, membershipID uuid.UUID) error {
	query := `
		UPDATE memberships
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, membershipID)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// TransferOwnership demotes the old owner to admin and promotes the target to
// owner inside one transaction.
func (r *PostgresRepository) TransferOwnership(ctx context.Context, fromMembershipID, toMembershipID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	demote := `
		UPDATE memberships SET role = 'admin', updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	tag, err := tx.Exec(ctx, demote, fromMembershipID)
	if err != nil {
		return fmt.Errorf("failed to demote owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}

	promote := `
		UPDATE memberships SET role = 'owner', updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	tag, err = tx.Exec(ctx, promote, toMembershipID)
	if err != nil {
		return fmt.Errorf("failed to promote new owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}

	return tx.Commit(ctx)
}
