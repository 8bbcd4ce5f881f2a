package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultRetention is how long audit records are kept before they become
// eligible for purge.
const DefaultRetention = 365 * 24 * time.Hour

// Record is one immutable entry in the audit trail.
type Record struct {
	ID             uuid.UUID       `json:"id"`
	ActorID        uuid.UUID       `json:"actor_id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Action         string          `json:"action"`
	EntityType     string          `json:"entity_type,omitempty"`
	EntityID       string          `json:"entity_id,omitempty"`
	Before         json.RawMessage `json:"before,omitempty"`
	After          json.RawMessage `json:"after,omitempty"`
	IPAddress      string          `json:"ip_address,omitempty"`
	UserAgent      string          `json:"user_agent,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Entry is the caller-facing input for one audit append.
type Entry struct {
	ActorID        uuid.UUID
	OrganizationID uuid.UUID
	Action         string
	EntityType     string
	EntityID       string
	Before         json.RawMessage
	After          json.RawMessage
	IPAddress      string
	UserAgent      string
}
