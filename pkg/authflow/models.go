package authflow

import (
	"errors"
	"time"
)

// ErrRefreshDenied is returned for every refresh rejection: bad signature,
// expired token, revoked or already-spent lineage, deactivated identity. A
// single error keeps callers from distinguishing why a stolen token failed.
var ErrRefreshDenied = errors.New("refresh token rejected")

// TokenPair is the credential set handed to a client after login,
// registration or refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Device describes the client a session was established from. Stored on the
// session record and echoed on the session management surface.
type Device struct {
	IPAddress string
	UserAgent string
}

// RegisterInput are the inputs for self-service registration.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}
