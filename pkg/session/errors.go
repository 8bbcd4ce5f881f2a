package session

import "errors"

var (
	// ErrNotFound is returned when no live session matches the lookup.
	ErrNotFound = errors.New("session not found")

	// ErrRotationConflict is returned when a rotation's compare-and-swap
	// matches no row: the presented refresh token was already spent, or the
	// session was revoked out from under it.
	ErrRotationConflict = errors.New("session rotation conflict")
)
