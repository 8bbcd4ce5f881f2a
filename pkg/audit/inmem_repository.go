package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemRepository is an in-memory implementation of Repository for tests.
type InMemRepository struct {
	mu      sync.Mutex
	records []Record
}

// NewInMemRepository creates a new in-memory audit repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{}
}

func (r *InMemRepository) Create(ctx context.Context, entry Entry) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := Record{
		ID:             uuid.New(),
		ActorID:        entry.ActorID,
		OrganizationID: entry.OrganizationID,
		Action:         entry.Action,
		EntityType:     entry.EntityType,
		EntityID:       entry.EntityID,
		Before:         entry.Before,
		After:          entry.After,
		IPAddress:      entry.IPAddress,
		UserAgent:      entry.UserAgent,
		CreatedAt:      time.Now().UTC(),
	}
	r.records = append(r.records, record)
	return &record, nil
}

func (r *InMemRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Record
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].OrganizationID == organizationID {
			matched = append(matched, r.records[i])
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *InMemRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []Record
	purged := 0
	for _, record := range r.records {
		if record.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, record)
	}
	r.records = kept
	return purged, nil
}
