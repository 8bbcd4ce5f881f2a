package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/apperror"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/client"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/session"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/token"
)

// SessionHandler exposes the session management surface: the caller's active
// sessions with device descriptors, and bulk revocation.
type SessionHandler struct {
	sessions *session.Service
	tokens   *token.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Service, tokens *token.Service) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		tokens:   tokens,
	}
}

// RegisterRoutes registers session management routes; callers mount them
// behind the authentication middleware.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListSessions)
}

// SessionResponse is the public view of one active session
type SessionResponse struct {
	ID           string    `json:"id"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Current      bool      `json:"current"`
}

// ListSessions returns the caller's active sessions. The session backing the
// caller's own refresh cookie, if present, is marked current.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := client.GetAuthUser(r.Context())
	if user == nil {
		apperror.Render(w, r, apperror.Unauthorized("authentication required"))
		return
	}

	sessions, err := h.sessions.ListActive(r.Context(), user.ID)
	if err != nil {
		apperror.Render(w, r, err)
		return
	}

	currentRotationID := h.currentRotationID(r)
	response := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, SessionResponse{
			ID:           s.ID.String(),
			IPAddress:    s.IPAddress,
			UserAgent:    s.UserAgent,
			LastActivity: s.LastActivity,
			CreatedAt:    s.CreatedAt,
			ExpiresAt:    s.ExpiresAt,
			Current:      s.RotationID == currentRotationID,
		})
	}
	render.JSON(w, r, response)
}

// currentRotationID identifies the caller's own session lineage from the
// refresh cookie. Best-effort; without the cookie no entry is marked current.
func (h *SessionHandler) currentRotationID(r *http.Request) string {
	cookie, err := r.Cookie(client.REFRESH_TOKEN_NAME)
	if err != nil {
		return ""
	}
	claims, err := h.tokens.VerifyRefresh(cookie.Value)
	if err != nil {
		return ""
	}
	return claims.RotationID
}
