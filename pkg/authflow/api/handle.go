package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/apperror"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/authflow"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/client"
	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/identity"
)

// Handle handles HTTP requests for the authentication lifecycle
type Handle struct {
	service       *authflow.Service
	secureCookies bool
}

// Option is a function that configures a Handle
type Option func(*Handle)

// WithSecureCookies controls the Secure attribute on token cookies. Disable
// only for local development over plain HTTP.
func WithSecureCookies(secure bool) Option {
	return func(h *Handle) {
		h.secureCookies = secure
	}
}

// NewHandle creates a new authentication handler
func NewHandle(service *authflow.Service, options ...Option) *Handle {
	h := &Handle{service: service, secureCookies: true}
	for _, option := range options {
		option(h)
	}
	return h
}

// RegisterRoutes registers the public authentication routes
func (h *Handle) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
}

// RegisterProtectedRoutes registers routes that require an authenticated user
func (h *Handle) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/logout-all", h.LogoutAll)
	r.Put("/password", h.ChangePassword)
}

// RegisterRequest is the request body for self-service registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the request body for password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the request body for token refresh; the token may come
// from the body or the refresh cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest is the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// TokenResponse is the response body carrying a fresh token pair
type TokenResponse struct {
	AccessToken      string            `json:"access_token"`
	AccessExpiresAt  time.Time         `json:"access_expires_at"`
	RefreshToken     string            `json:"refresh_token"`
	RefreshExpiresAt time.Time         `json:"refresh_expires_at"`
	Identity         *IdentityResponse `json:"identity,omitempty"`
}

// IdentityResponse is the public view of an identity
type IdentityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// MessageResponse is a generic confirmation body
type MessageResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

func (h *Handle) Register(w http.ResponseWriter, r *http.Request) {
	var data RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		apperror.Render(w, r, apperror.Validation("invalid request body"))
		return
	}
	if data.Email == "" || data.Password == "" {
		apperror.Render(w, r, apperror.Validation("email and password are required"))
		return
	}

	ident, pair, err := h.service.Register(r.Context(), authflow.RegisterInput{
		Email:    data.Email,
		Name:     data.Name,
		Password: data.Password,
	}, deviceFromRequest(r))
	if err != nil {
		renderAuthError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, tokenResponse(pair, ident))
}

func (h *Handle) Login(w http.ResponseWriter, r *http.Request) {
	var data LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		apperror.Render(w, r, apperror.Validation("invalid request body"))
		return
	}

	ident, pair, err := h.service.Login(r.Context(), data.Email, data.Password, deviceFromRequest(r))
	if err != nil {
		renderAuthError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	render.JSON(w, r, tokenResponse(pair, ident))
}

func (h *Handle) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := refreshTokenFromRequest(r)
	if refreshToken == "" {
		apperror.Render(w, r, apperror.Unauthorized("missing refresh token"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), refreshToken, deviceFromRequest(r))
	if err != nil {
		renderAuthError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	render.JSON(w, r, tokenResponse(pair, nil))
}

func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	if refreshToken := refreshTokenFromRequest(r); refreshToken != "" {
		if err := h.service.Logout(r.Context(), refreshToken, deviceFromRequest(r)); err != nil &&
			!errors.Is(err, authflow.ErrRefreshDenied) {
			apperror.Render(w, r, err)
			return
		}
	}

	h.clearTokenCookies(w)
	render.JSON(w, r, MessageResponse{Message: "logged out"})
}

func (h *Handle) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user := client.GetAuthUser(r.Context())
	if user == nil {
		apperror.Render(w, r, apperror.Unauthorized("authentication required"))
		return
	}

	count, err := h.service.LogoutAll(r.Context(), user.ID, deviceFromRequest(r))
	if err != nil {
		apperror.Render(w, r, err)
		return
	}

	h.clearTokenCookies(w)
	render.JSON(w, r, MessageResponse{Message: "all sessions revoked", Count: count})
}

func (h *Handle) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := client.GetAuthUser(r.Context())
	if user == nil {
		apperror.Render(w, r, apperror.Unauthorized("authentication required"))
		return
	}

	var data ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		apperror.Render(w, r, apperror.Validation("invalid request body"))
		return
	}
	if data.CurrentPassword == "" || data.NewPassword == "" {
		apperror.Render(w, r, apperror.Validation("current and new password are required"))
		return
	}

	err := h.service.ChangePassword(r.Context(), user.ID, data.CurrentPassword, data.NewPassword, deviceFromRequest(r))
	if err != nil {
		renderAuthError(w, r, err)
		return
	}

	h.clearTokenCookies(w)
	render.JSON(w, r, MessageResponse{Message: "password updated; log in again"})
}

func tokenResponse(pair *authflow.TokenPair, ident *identity.Identity) TokenResponse {
	resp := TokenResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
	if ident != nil {
		resp.Identity = &IdentityResponse{
			ID:    ident.ID.String(),
			Email: ident.Email,
			Name:  ident.Name,
		}
	}
	return resp
}

// renderAuthError maps domain errors onto the HTTP taxonomy. Credential and
// refresh failures share one generic unauthorized message.
func renderAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var emailTaken identity.ErrEmailTaken
	var complexity identity.ErrPasswordComplexity

	switch {
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, authflow.ErrRefreshDenied):
		apperror.Render(w, r, apperror.Unauthorized("invalid credentials"))
	case errors.As(err, &emailTaken):
		apperror.Render(w, r, apperror.Conflict("email already registered"))
	case errors.As(err, &complexity):
		apperror.Render(w, r, apperror.Validation(complexity.Error()))
	default:
		apperror.Render(w, r, err)
	}
}

func (h *Handle) setTokenCookies(w http.ResponseWriter, pair *authflow.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     client.ACCESS_TOKEN_NAME,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     client.REFRESH_TOKEN_NAME,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handle) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{client.ACCESS_TOKEN_NAME, client.REFRESH_TOKEN_NAME} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// refreshTokenFromRequest reads the refresh token from the JSON body, falling
// back to the refresh cookie for browser clients.
func refreshTokenFromRequest(r *http.Request) string {
	var data RefreshRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&data); err == nil && data.RefreshToken != "" {
			return data.RefreshToken
		}
	}
	if cookie, err := r.Cookie(client.REFRESH_TOKEN_NAME); err == nil {
		return cookie.Value
	}
	return ""
}

// deviceFromRequest extracts the client descriptor stored on the session.
func deviceFromRequest(r *http.Request) authflow.Device {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		// first hop is the client
		if idx := strings.IndexByte(ip, ','); idx >= 0 {
			ip = ip[:idx]
		}
		ip = strings.TrimSpace(ip)
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}
	return authflow.Device{IPAddress: ip, UserAgent: r.UserAgent()}
}
