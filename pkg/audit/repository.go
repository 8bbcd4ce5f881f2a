package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for audit record storage. Records are
// append-only; there is no update.
type Repository interface {
	// Create appends one record
	Create(ctx context.Context, entry Entry) (*Record, error)

	// ListByOrganization lists records for reporting, newest first
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]Record, error)

	// DeleteOlderThan purges records created before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
