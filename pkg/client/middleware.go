package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/apperror"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/org"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/rbac"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/session"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/token"
)

// OrganizationHeader names the request header carrying an explicit
// organization id, the lowest-precedence explicit source.
const OrganizationHeader = "X-Organization-Id"

// maxBodyPeek bounds how much of a request body the tenant middleware reads
// when looking for an organization id.
const maxBodyPeek = 1 << 20

// RequireAuth rejects requests that never passed AuthUserMiddleware.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthUser(r.Context()) == nil {
			slog.Debug("Unauthenticated request to protected resource", "path", r.URL.Path)
			apperror.Render(w, r, apperror.Unauthorized("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TenantMiddleware binds every request to exactly one organization. The
// explicit id is taken with path > query > body > header precedence; with no
// explicit id the identity's last resolved organization, then its oldest
// active membership, decide. The resolver verifies membership, so a stale
// cached id can redirect but never grant access.
type TenantMiddleware struct {
	resolver *org.Resolver

	mu       sync.RWMutex
	resolved map[uuid.UUID]uuid.UUID
}

// NewTenantMiddleware creates a new TenantMiddleware
func NewTenantMiddleware(resolver *org.Resolver) *TenantMiddleware {
	return &TenantMiddleware{
		resolver: resolver,
		resolved: make(map[uuid.UUID]uuid.UUID),
	}
}

// RequireOrganization resolves the request's organization and stores it on the
// context. Must run after AuthUserMiddleware.
func (m *TenantMiddleware) RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil {
			apperror.Render(w, r, apperror.Unauthorized("authentication required"))
			return
		}

		explicit, err := explicitOrganizationID(r)
		if err != nil {
			apperror.Render(w, r, err)
			return
		}

		orgID, err := m.resolver.Resolve(r.Context(), org.ResolveInput{
			IdentityID: user.ID,
			Superadmin: user.Superadmin,
			Explicit:   explicit,
			Cached:     m.cached(user.ID),
		})
		if err != nil {
			switch {
			case errors.Is(err, org.ErrNoOrganization):
				apperror.Render(w, r, apperror.Validation("organization could not be determined"))
			case errors.Is(err, org.ErrNotMember):
				apperror.Render(w, r, apperror.Forbidden("not a member of this organization"))
			default:
				apperror.Render(w, r, err)
			}
			return
		}

		m.remember(user.ID, orgID)
		next.ServeHTTP(w, r.WithContext(WithOrganizationID(r.Context(), orgID)))
	})
}

func (m *TenantMiddleware) cached(identityID uuid.UUID) uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolved[identityID]
}

func (m *TenantMiddleware) remember(identityID, orgID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved[identityID] = orgID
}

// Forget drops the remembered organization for an identity, e.g. after the
// identity leaves it.
func (m *TenantMiddleware) Forget(identityID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resolved, identityID)
}

// explicitOrganizationID extracts the organization id the request names, in
// path > query > body > header order. A source that is present but malformed
// is a validation error; it never falls through to a weaker source.
func explicitOrganizationID(r *http.Request) (uuid.UUID, error) {
	if raw := chi.URLParam(r, "orgID"); raw != "" {
		return parseOrgID(raw)
	}
	if raw := r.URL.Query().Get("organization_id"); raw != "" {
		return parseOrgID(raw)
	}
	if raw := organizationIDFromBody(r); raw != "" {
		return parseOrgID(raw)
	}
	if raw := r.Header.Get(OrganizationHeader); raw != "" {
		return parseOrgID(raw)
	}
	return uuid.Nil, nil
}

func parseOrgID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid organization id")
	}
	return id, nil
}

// organizationIDFromBody peeks at a JSON request body for an organization_id
// field, then restores the body so the handler can read it again.
func organizationIDFromBody(r *http.Request) string {
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodDelete {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPeek))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.OrganizationID
}

// TouchActivity stamps the caller's session with a last-activity update on
// each authenticated request. The write runs detached; it can never slow down
// or fail the request.
func TouchActivity(sessions *session.Service, tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(REFRESH_TOKEN_NAME); err == nil {
				if claims, err := tokens.VerifyRefresh(cookie.Value); err == nil {
					go func(rotationID string) {
						if err := sessions.Touch(context.Background(), rotationID); err != nil {
							slog.Debug("Failed to touch session activity", "err", err)
						}
					}(claims.RotationID)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission returns a middleware enforcing that the authenticated
// identity may perform action in the resolved organization. Must run after
// RequireOrganization. An empty action admits any active member.
func RequirePermission(checker *rbac.Checker, action string) func(http.Handler) http.Handler {
	return requirePermission(checker, action, (*rbac.Checker).HasPermission)
}

// RequireAllPermissions is the strict variant: the role must hold every token
// the action resolves to.
func RequireAllPermissions(checker *rbac.Checker, action string) func(http.Handler) http.Handler {
	return requirePermission(checker, action, (*rbac.Checker).HasAllPermissions)
}

func requirePermission(
	checker *rbac.Checker,
	action string,
	check func(*rbac.Checker, context.Context, rbac.Actor, uuid.UUID, string) (bool, error),
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetAuthUser(r.Context())
			if user == nil {
				apperror.Render(w, r, apperror.Unauthorized("authentication required"))
				return
			}
			orgID, ok := GetOrganizationID(r.Context())
			if !ok {
				apperror.Render(w, r, apperror.Validation("organization could not be determined"))
				return
			}

			allowed, err := check(checker, r.Context(), rbac.Actor{ID: user.ID, Superadmin: user.Superadmin}, orgID, action)
			if err != nil {
				apperror.Render(w, r, err)
				return
			}
			if !allowed {
				slog.Debug("Permission denied", "identity_id", user.ID, "org_id", orgID, "action", action)
				apperror.Render(w, r, apperror.Forbidden("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
