package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/audit"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/identity"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/session"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/token"
)

// Service orchestrates the authentication lifecycle: registration, login,
// refresh rotation, logout and the cleanup each of those implies across the
// token issuer, session store and revocation cache.
type Service struct {
	identities *identity.Service
	sessions   *session.Service
	tokens     *token.Service
	cache      session.RevocationCache
	recorder   *audit.Recorder
}

// NewService creates a new authflow Service
func NewService(
	identities *identity.Service,
	sessions *session.Service,
	tokens *token.Service,
	cache session.RevocationCache,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		identities: identities,
		sessions:   sessions,
		tokens:     tokens,
		cache:      cache,
		recorder:   recorder,
	}
}

// Register creates a new identity and establishes its first session.
func (s *Service) Register(ctx context.Context, input RegisterInput, device Device) (*identity.Identity, *TokenPair, error) {
	ident, err := s.identities.Register(ctx, identity.RegisterParams{
		Email:    input.Email,
		Name:     input.Name,
		Password: input.Password,
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.establishSession(ctx, ident, device)
	if err != nil {
		return nil, nil, err
	}

	s.recorder.Record(audit.Entry{
		ActorID:    ident.ID,
		Action:     "register",
		EntityType: "identity",
		EntityID:   ident.ID.String(),
		IPAddress:  device.IPAddress,
		UserAgent:  device.UserAgent,
	})
	return ident, pair, nil
}

// Login authenticates an email/password pair and establishes a session.
func (s *Service) Login(ctx context.Context, email, password string, device Device) (*identity.Identity, *TokenPair, error) {
	ident, err := s.identities.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.establishSession(ctx, ident, device)
	if err != nil {
		return nil, nil, err
	}

	s.recorder.Record(audit.Entry{
		ActorID:    ident.ID,
		Action:     "login",
		EntityType: "identity",
		EntityID:   ident.ID.String(),
		IPAddress:  device.IPAddress,
		UserAgent:  device.UserAgent,
	})
	return ident, pair, nil
}

// establishSession mints a token pair and persists the session lineage. The
// session write must succeed before the tokens leave this function; a pair
// whose lineage was never stored would be unusable at first refresh.
func (s *Service) establishSession(ctx context.Context, ident *identity.Identity, device Device) (*TokenPair, error) {
	subject := token.Subject{ID: ident.ID, Email: ident.Email, Superadmin: ident.Superadmin}

	accessToken, accessExpiresAt, err := s.tokens.IssueAccess(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, refreshExpiresAt, rotationID, err := s.tokens.IssueRefresh(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	_, err = s.sessions.CreateSession(ctx, session.CreateParams{
		IdentityID: ident.ID,
		RotationID: rotationID,
		TokenHash:  token.Hash(refreshToken),
		IPAddress:  device.IPAddress,
		UserAgent:  device.UserAgent,
		ExpiresAt:  refreshExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.cacheSet(ctx, ident.ID, rotationID, true)

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The presented
// token is single-use: the session store swaps (rotation id, token hash)
// atomically, so of two racing presentations of the same token exactly one
// succeeds. The revocation cache only ever short-circuits a known-revoked
// lineage; the store remains authoritative.
func (s *Service) Refresh(ctx context.Context, refreshToken string, device Device) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		slog.Debug("Refresh token failed verification", "err", err)
		return nil, ErrRefreshDenied
	}

	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrRefreshDenied
	}

	result, err := s.cache.Check(ctx, identityID, claims.RotationID)
	if err != nil {
		slog.Warn("Revocation cache check failed, falling through", "err", err)
		result = session.CacheUnknown
	}
	if result == session.CacheRevoked {
		slog.Info("Refresh rejected by revocation cache", "identity_id", identityID)
		return nil, ErrRefreshDenied
	}

	ident, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrRefreshDenied
		}
		return nil, err
	}
	if !ident.CanAuthenticate() {
		return nil, ErrRefreshDenied
	}

	subject := token.Subject{ID: ident.ID, Email: ident.Email, Superadmin: ident.Superadmin}
	accessToken, accessExpiresAt, err := s.tokens.IssueAccess(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	newRefreshToken, refreshExpiresAt, newRotationID, err := s.tokens.IssueRefresh(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	_, err = s.sessions.Rotate(ctx, session.RotateParams{
		OldRotationID: claims.RotationID,
		OldTokenHash:  token.Hash(refreshToken),
		NewRotationID: newRotationID,
		NewTokenHash:  token.Hash(newRefreshToken),
		ExpiresAt:     refreshExpiresAt,
	})
	if err != nil {
		if errors.Is(err, session.ErrRotationConflict) || errors.Is(err, session.ErrNotFound) {
			// spent or revoked lineage; remember the verdict so replays of
			// the same token stop short of the store
			s.cacheSet(ctx, ident.ID, claims.RotationID, false)
			slog.Info("Refresh token replay rejected", "identity_id", ident.ID)
			return nil, ErrRefreshDenied
		}
		return nil, err
	}

	s.cacheInvalidate(ctx, ident.ID, claims.RotationID)
	s.cacheSet(ctx, ident.ID, newRotationID, true)

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     newRefreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Logout terminates the session the refresh token belongs to. An invalid or
// expired token is reported as ErrRefreshDenied; the client clears its
// credentials either way.
func (s *Service) Logout(ctx context.Context, refreshToken string, device Device) error {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return ErrRefreshDenied
	}
	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ErrRefreshDenied
	}

	if err := s.sessions.Revoke(ctx, claims.RotationID); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	s.cacheSet(ctx, identityID, claims.RotationID, false)

	s.recorder.Record(audit.Entry{
		ActorID:    identityID,
		Action:     "logout",
		EntityType: "identity",
		EntityID:   identityID.String(),
		IPAddress:  device.IPAddress,
		UserAgent:  device.UserAgent,
	})
	return nil
}

// LogoutAll revokes every session of an identity and flushes its cache
// entries. Used by the explicit endpoint and after password changes.
func (s *Service) LogoutAll(ctx context.Context, identityID uuid.UUID, device Device) (int, error) {
	count, err := s.sessions.RevokeAll(ctx, identityID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.InvalidateAll(ctx, identityID); err != nil {
		slog.Warn("Failed to flush revocation cache", "identity_id", identityID, "err", err)
	}

	s.recorder.Record(audit.Entry{
		ActorID:    identityID,
		Action:     "logout_all",
		EntityType: "identity",
		EntityID:   identityID.String(),
		IPAddress:  device.IPAddress,
		UserAgent:  device.UserAgent,
	})
	return count, nil
}

// ChangePassword rotates the password and revokes every existing session, so
// a credential change cuts off anyone holding a stolen refresh token.
func (s *Service) ChangePassword(ctx context.Context, identityID uuid.UUID, current, next string, device Device) error {
	if err := s.identities.ChangePassword(ctx, identityID, current, next); err != nil {
		return err
	}
	if _, err := s.LogoutAll(ctx, identityID, device); err != nil {
		return err
	}

	s.recorder.Record(audit.Entry{
		ActorID:    identityID,
		Action:     "change_password",
		EntityType: "identity",
		EntityID:   identityID.String(),
		IPAddress:  device.IPAddress,
		UserAgent:  device.UserAgent,
	})
	return nil
}

// Deactivate tombstones an identity and tears down its sessions. Outstanding
// access tokens keep working until they expire; the next refresh fails.
func (s *Service) Deactivate(ctx context.Context, identityID uuid.UUID, device Device) error {
	if err := s.identities.Deactivate(ctx, identityID); err != nil {
		return err
	}
	if _, err := s.sessions.RevokeAll(ctx, identityID); err != nil {
		return err
	}
	if err := s.cache.InvalidateAll(ctx, identityID); err != nil {
		slog.Warn("Failed to flush revocation cache", "identity_id", identityID, "err", err)
	}

	s.recorder.Record(audit.Entry{
		ActorID:    identityID,
		Action:     "deactivate",
		EntityType: "identity",
		EntityID:   identityID.String(),
		IPAddress:  device.IPAddress,
		UserAgent:  device.UserAgent,
	})
	return nil
}

// cacheSet records a rotation id's validity, best-effort. The cache is a
// pure optimization; a failed write only costs a future store round-trip.
func (s *Service) cacheSet(ctx context.Context, identityID uuid.UUID, rotationID string, valid bool) {
	if err := s.cache.Set(ctx, identityID, rotationID, valid, s.tokens.RefreshExpiry()); err != nil {
		slog.Warn("Failed to write revocation cache", "identity_id", identityID, "err", err)
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, identityID uuid.UUID, rotationID string) {
	if err := s.cache.Invalidate(ctx, identityID, rotationID); err != nil {
		slog.Warn("Failed to invalidate revocation cache entry", "identity_id", identityID, "err", err)
	}
}
