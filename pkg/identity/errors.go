package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no live identity matches the lookup.
	ErrNotFound = errors.New("identity not found")

	// ErrInvalidCredentials covers unknown email, wrong password and
	// deactivated account alike, so authentication failures never reveal
	// which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrEmailTaken is returned when attempting to register an email that already
// has a live identity.
type ErrEmailTaken struct {
	Email string
}

func (e ErrEmailTaken) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrPasswordComplexity is returned when a password does not meet complexity
// requirements
type ErrPasswordComplexity struct {
	Details string
}

func (e ErrPasswordComplexity) Error() string {
	return fmt.Sprintf("password does not meet complexity requirements: %s", e.Details)
}
