package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Fixed issuer/audience strings scoping tokens to this service. A token minted
// for one audience must never verify against the other.
const (
	Issuer          = "aurora-ops"
	AccessAudience  = "aurora-ops-access"
	RefreshAudience = "aurora-ops-refresh"
)

// Default token expiry durations
const (
	DefaultAccessTokenExpiry  = 15 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

var (
	// ErrTokenExpired is returned when a token's signature is valid but its
	// expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for any other verification failure.
	ErrTokenInvalid = errors.New("token invalid")
)

// Subject identifies the user a token is minted for.
type Subject struct {
	ID         uuid.UUID
	Email      string
	Superadmin bool
}

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	Email      string `json:"email"`
	Superadmin bool   `json:"superadmin,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims carried by a refresh token. RotationID ties the
// token to its session lineage; it is replaced on every successful refresh.
type RefreshClaims struct {
	Email      string `json:"email"`
	RotationID string `json:"rotation_id"`
	jwt.RegisteredClaims
}

// Service mints and verifies access and refresh tokens. The two token types
// are signed with distinct secrets so one can never stand in for the other.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// Option is a function that configures a Service
type Option func(*Service)

// WithAccessExpiry sets the access token expiry duration
func WithAccessExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		s.accessExpiry = expiry
	}
}

// WithRefreshExpiry sets the refresh token expiry duration
func WithRefreshExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		s.refreshExpiry = expiry
	}
}

// NewService creates a new token Service
func NewService(accessSecret, refreshSecret string, options ...Option) *Service {
	s := &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  DefaultAccessTokenExpiry,
		refreshExpiry: DefaultRefreshTokenExpiry,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// RefreshExpiry returns the configured refresh token lifetime. The revocation
// cache uses it as the entry TTL.
func (s *Service) RefreshExpiry() time.Duration {
	return s.refreshExpiry
}

// IssueAccess mints a short-lived access token for the subject.
func (s *Service) IssueAccess(sub Subject) (string, time.Time, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		Email:      sub.Email,
		Superadmin: sub.Superadmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Minute)),
			Issuer:    Issuer,
			Subject:   sub.ID.String(),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{AccessAudience},
		},
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		slog.Error("Failed to sign access token", "err", err)
		return "", time.Time{}, err
	}
	return tokenStr, claims.ExpiresAt.Time, nil
}

// IssueRefresh mints a long-lived refresh token with a freshly generated
// rotation id. The rotation id is returned so the caller can persist the
// session lineage before handing the token out.
func (s *Service) IssueRefresh(sub Subject) (tokenStr string, expiresAt time.Time, rotationID string, err error) {
	now := time.Now().UTC()
	rotationID = uuid.New().String()
	claims := RefreshClaims{
		Email:      sub.Email,
		RotationID: rotationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Minute)),
			Issuer:    Issuer,
			Subject:   sub.ID.String(),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{RefreshAudience},
		},
	}

	tokenStr, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		slog.Error("Failed to sign refresh token", "err", err)
		return "", time.Time{}, "", err
	}
	return tokenStr, claims.ExpiresAt.Time, rotationID, nil
}

// VerifyAccess validates an access token's signature, expiry, issuer and
// audience. Expiry and other failures are reported distinctly so callers can
// log them apart while surfacing the same authentication error.
func (s *Service) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenStr, claims, s.accessSecret, AccessAudience); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token against the refresh secret and
// returns its claims, including the embedded rotation id.
func (s *Service) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenStr, claims, s.refreshSecret, RefreshAudience); err != nil {
		return nil, err
	}
	if claims.RotationID == "" {
		return nil, fmt.Errorf("%w: missing rotation id", ErrTokenInvalid)
	}
	return claims, nil
}

func (s *Service) parse(tokenStr string, claims jwt.Claims, secret []byte, audience string) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// Hash returns the hex-encoded SHA-256 digest of a token. Refresh tokens are
// persisted only as this hash; the raw value is returned to the caller once.
func Hash(tokenStr string) string {
	sum := sha256.Sum256([]byte(tokenStr))
	return hex.EncodeToString(sum[:])
}
