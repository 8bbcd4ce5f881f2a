package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Service provides identity management business logic
type Service struct {
	repo Repository
}

// NewService creates a new identity service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// HashPassword hashes the plain-text password using bcrypt.
func HashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CheckPasswordHash compares the plain-text password with the stored hash.
func CheckPasswordHash(password string, hash []byte) bool {
	if password == "" || len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordComplexity{Details: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	return nil
}

// Register creates a new identity with a hashed password.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Identity, error) {
	if !strings.Contains(params.Email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	createParams := CreateParams{PasswordHash: hash}
	copier.Copy(&createParams, &params)

	identity, err := s.repo.Create(ctx, createParams)
	if err != nil {
		return nil, err
	}
	slog.Info("Registered identity", "identity_id", identity.ID)
	return identity, nil
}

// Authenticate verifies an email/password pair. Unknown email, wrong password
// and deactivated account all return ErrInvalidCredentials so callers cannot
// enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	identity, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// burn a comparison anyway to keep timing comparable
			CheckPasswordHash(password, []byte("$2a$10$0000000000000000000000000000000000000000000000000000"))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPasswordHash(password, identity.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !identity.CanAuthenticate() {
		return nil, ErrInvalidCredentials
	}
	return identity, nil
}

// GetByID retrieves a live identity
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies a profile update
func (s *Service) UpdateProfile(ctx context.Context, params UpdateParams) (*Identity, error) {
	if !strings.Contains(params.Email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	return s.repo.Update(ctx, params)
}

// ChangePassword verifies the current password and stores a new hash. The
// caller is responsible for revoking other sessions afterwards.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	identity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CheckPasswordHash(current, identity.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// Deactivate tombstones an identity. Existing tokens stop working at the next
// refresh; the caller revokes sessions and cache entries alongside.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	slog.Info("Deactivated identity", "identity_id", id)
	return nil
}
