package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/apperror"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/token"
)

// AuthUser is the authenticated identity attached to a request context after
// access-token verification.
type AuthUser struct {
	ID         uuid.UUID
	Email      string
	Superadmin bool
}

func (u AuthUser) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("identity_id", u.ID.String()),
		slog.Bool("superadmin", u.Superadmin),
	)
}

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation. This technique
// for defining context keys was copied from Go 1.7's new use of context in net/http.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "aurora context value " + k.name
}

const (
	ACCESS_TOKEN_NAME  = "access_token"
	REFRESH_TOKEN_NAME = "refresh_token"
)

var (
	AuthUserKey       = &contextKey{"AuthUser"}
	OrganizationIDKey = &contextKey{"OrganizationID"}
)

// Verifier parses and validates the access token from the Authorization header
// or the access-token cookie, placing the result in the jwtauth context. It
// does not reject requests; pair it with AuthUserMiddleware.
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return jwtauth.Verify(ja, jwtauth.TokenFromHeader, TokenFromCookie)(next)
	}
}

func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(ACCESS_TOKEN_NAME)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AuthUserMiddleware turns verified access-token claims into an AuthUser on
// the request context. Requests with a missing, invalid or mis-scoped token
// are rejected with a single generic 401.
func AuthUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			slog.Debug("Access token rejected", "err", err)
			apperror.Render(w, r, apperror.Unauthorized("invalid or expired token"))
			return
		}

		user, err := authUserFromClaims(claims)
		if err != nil {
			slog.Debug("Access token claims rejected", "err", err)
			apperror.Render(w, r, apperror.Unauthorized("invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), AuthUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authUserFromClaims validates issuer, audience and subject of verified claims
// and builds the AuthUser. jwtauth already checked signature and expiry.
func authUserFromClaims(claims map[string]interface{}) (*AuthUser, error) {
	iss, _ := claims["iss"].(string)
	if iss != token.Issuer {
		return nil, apperror.Unauthorized("wrong issuer")
	}

	if !hasAudience(claims["aud"], token.AccessAudience) {
		return nil, apperror.Unauthorized("wrong audience")
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, apperror.Unauthorized("bad subject")
	}

	email, _ := claims["email"].(string)
	superadmin, _ := claims["superadmin"].(bool)

	return &AuthUser{ID: id, Email: email, Superadmin: superadmin}, nil
}

func hasAudience(aud interface{}, want string) bool {
	switch v := aud.(type) {
	case string:
		return v == want
	case []string:
		for _, a := range v {
			if a == want {
				return true
			}
		}
	case []interface{}:
		for _, a := range v {
			if s, ok := a.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// GetAuthUser returns the authenticated identity from the context, or nil if
// the request never passed AuthUserMiddleware.
func GetAuthUser(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(AuthUserKey).(*AuthUser)
	return user
}

// WithAuthUser attaches an AuthUser to a context. Used by tests and internal
// callers that bypass the HTTP middleware.
func WithAuthUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, AuthUserKey, user)
}

// GetOrganizationID returns the organization the request was resolved to.
// The second return is false if the request never passed RequireOrganization.
func GetOrganizationID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(OrganizationIDKey).(uuid.UUID)
	return id, ok
}

// WithOrganizationID attaches a resolved organization id to a context.
func WithOrganizationID(ctx context.Context, orgID uuid.UUID) context.Context {
	return context.WithValue(ctx, OrganizationIDKey, orgID)
}
