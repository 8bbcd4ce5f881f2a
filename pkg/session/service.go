package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service provides session management business logic
type Service struct {
	repo Repository
}

// NewService creates a new session service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// CreateSession creates a new session lineage record
func (s *Service) CreateSession(ctx context.Context, params CreateParams) (*Session, error) {
	if params.IdentityID == uuid.Nil {
		return nil, fmt.Errorf("identity_id is required")
	}
	if params.RotationID == "" {
		return nil, fmt.Errorf("rotation_id is required")
	}
	if params.TokenHash == "" {
		return nil, fmt.Errorf("token_hash is required")
	}
	if params.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("expires_at must be in the future")
	}

	return s.repo.Create(ctx, params)
}

// GetByRotationID retrieves a live session by rotation id. An expired record
// is reported as not found even when the row still exists.
func (s *Service) GetByRotationID(ctx context.Context, rotationID string) (*Session, error) {
	session, err := s.repo.GetByRotationID(ctx, rotationID)
	if err != nil {
		return nil, err
	}
	if !session.IsUsable() {
		return nil, ErrNotFound
	}
	return session, nil
}

// Rotate performs the single-use swap of rotation id and token hash.
func (s *Service) Rotate(ctx context.Context, params RotateParams) (*Session, error) {
	session, err := s.repo.Rotate(ctx, params)
	if err != nil {
		return nil, err
	}
	slog.Debug("Session rotated", "identity_id", session.IdentityID, "rotation_id", params.NewRotationID)
	return session, nil
}

// Revoke terminates a single session (logout)
func (s *Service) Revoke(ctx context.Context, rotationID string) error {
	return s.repo.Revoke(ctx, rotationID)
}

// RevokeAll terminates every session for an identity (logout-all)
func (s *Service) RevokeAll(ctx context.Context, identityID uuid.UUID) (int, error) {
	count, err := s.repo.RevokeAllByIdentity(ctx, identityID)
	if err != nil {
		return 0, err
	}
	slog.Info("Revoked all sessions", "identity_id", identityID, "count", count)
	return count, nil
}

// ListActive lists the identity's live sessions for the management surface.
// CurrentRotationID marks which entry backs the caller's own session.
func (s *Service) ListActive(ctx context.Context, identityID uuid.UUID) ([]Session, error) {
	return s.repo.ListActiveByIdentity(ctx, identityID)
}

// Touch updates a session's last-activity timestamp
func (s *Service) Touch(ctx context.Context, rotationID string) error {
	return s.repo.Touch(ctx, rotationID)
}

// PurgeExpired removes long-expired session rows
func (s *Service) PurgeExpired(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx)
}
