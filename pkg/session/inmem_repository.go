package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemRepository is an in-memory implementation of Repository for tests and
// single-process deployments. All methods are safe for concurrent use; Rotate
// performs its compare-and-swap under one mutex hold.
type InMemRepository struct {
	mu       sync.Mutex
	sessions map[string]*Session // keyed by rotation id
}

// NewInMemRepository creates a new in-memory session repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		sessions: make(map[string]*Session),
	}
}

func (r *InMemRepository) Create(ctx context.Context, params CreateParams) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	session := &Session{
		ID:           uuid.New(),
		IdentityID:   params.IdentityID,
		RotationID:   params.RotationID,
		TokenHash:    params.TokenHash,
		IPAddress:    params.IPAddress,
		UserAgent:    params.UserAgent,
		Active:       true,
		LastActivity: now,
		ExpiresAt:    params.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.sessions[params.RotationID] = session

	copied := *session
	return &copied, nil
}

func (r *InMemRepository) GetByRotationID(ctx context.Context, rotationID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[rotationID]
	if !ok || session.DeletedAt != nil {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *InMemRepository) Rotate(ctx context.Context, params RotateParams) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[params.OldRotationID]
	if !ok || session.DeletedAt != nil || !session.Active ||
		session.TokenHash != params.OldTokenHash ||
		time.Now().UTC().After(session.ExpiresAt) {
		return nil, ErrRotationConflict
	}

	now := time.Now().UTC()
	delete(r.sessions, params.OldRotationID)
	session.RotationID = params.NewRotationID
	session.TokenHash = params.NewTokenHash
	session.ExpiresAt = params.ExpiresAt
	session.LastActivity = now
	session.UpdatedAt = now
	r.sessions[params.NewRotationID] = session

	copied := *session
	return &copied, nil
}

func (r *InMemRepository) Revoke(ctx context.Context, rotationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[rotationID]
	if !ok || session.DeletedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	session.Active = false
	session.DeletedAt = &now
	session.UpdatedAt = now
	return nil
}

func (r *InMemRepository) RevokeAllByIdentity(ctx context.Context, identityID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	count := 0
	for _, session := range r.sessions {
		if session.IdentityID == identityID && session.Active && session.DeletedAt == nil {
			session.Active = false
			session.DeletedAt = &now
			session.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (r *InMemRepository) ListActiveByIdentity(ctx context.Context, identityID uuid.UUID) ([]Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sessions []Session
	for _, session := range r.sessions {
		if session.IdentityID == identityID && session.IsUsable() {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

func (r *InMemRepository) Touch(ctx context.Context, rotationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[rotationID]; ok && session.DeletedAt == nil {
		now := time.Now().UTC()
		session.LastActivity = now
		session.UpdatedAt = now
	}
	return nil
}

func (r *InMemRepository) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	for rotationID, session := range r.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(r.sessions, rotationID)
		}
	}
	return nil
}
