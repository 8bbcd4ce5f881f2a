package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL audit repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

const recordColumns = `
	id, actor_id, organization_id, action, entity_type, entity_id,
	before_state, after_state, ip_address, user_agent, created_at
`

// Create appends one record
func (r *PostgresRepository) Create(ctx context.Context, entry Entry) (*Record, error) {
	query := `
		INSERT INTO audit_records (
			actor_id, organization_id, action, entity_type, entity_id,
			before_state, after_state, ip_address, user_agent
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING` + recordColumns

	record := &Record{}
	err := r.pool.QueryRow(ctx, query,
		entry.ActorID,
		entry.OrganizationID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Before,
		entry.After,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(
		&record.ID,
		&record.ActorID,
		&record.OrganizationID,
		&record.Action,
		&record.EntityType,
		&record.EntityID,
		&record.Before,
		&record.After,
		&record.IPAddress,
		&record.UserAgent,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit record: %w", err)
	}
	return record, nil
}

// ListByOrganization lists records for reporting, newest first
func (r *PostgresRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]Record, error) {
	query := `
		SELECT` + recordColumns + `
		FROM audit_records
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record := Record{}
		err := rows.Scan(
			&record.ID,
			&record.ActorID,
			&record.OrganizationID,
			&record.Action,
			&record.EntityType,
			&record.EntityID,
			&record.Before,
			&record.After,
			&record.IPAddress,
			&record.UserAgent,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteOlderThan purges records created before the cutoff
func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM audit_records WHERE created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
