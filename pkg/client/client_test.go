package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhdnifad/Aurora-Ops-sub000/pkg/token"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

func authStack(handler http.Handler) http.Handler {
	ja := jwtauth.New("HS256", []byte(testAccessSecret), nil)
	return Verifier(ja)(AuthUserMiddleware(handler))
}

func echoAuthUser(t *testing.T, captured **AuthUser) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetAuthUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthUserMiddlewareBearerToken(t *testing.T) {
	tokens := token.NewService(testAccessSecret, testRefreshSecret)
	subject := token.Subject{ID: uuid.New(), Email: "dana@example.com", Superadmin: true}
	accessToken, _, err := tokens.IssueAccess(subject)
	require.NoError(t, err)

	var got *AuthUser
	handler := authStack(echoAuthUser(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, subject.ID, got.ID)
	assert.Equal(t, subject.Email, got.Email)
	assert.True(t, got.Superadmin)
}

func TestAuthUserMiddlewareCookie(t *testing.T) {
	tokens := token.NewService(testAccessSecret, testRefreshSecret)
	accessToken, _, err := tokens.IssueAccess(token.Subject{ID: uuid.New(), Email: "dana@example.com"})
	require.NoError(t, err)

	var got *AuthUser
	handler := authStack(echoAuthUser(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: ACCESS_TOKEN_NAME, Value: accessToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.False(t, got.Superadmin)
}

func TestAuthUserMiddlewareRejections(t *testing.T) {
	tokens := token.NewService(testAccessSecret, testRefreshSecret)
	subject := token.Subject{ID: uuid.New(), Email: "dana@example.com"}

	refreshToken, _, _, err := tokens.IssueRefresh(subject)
	require.NoError(t, err)

	otherSecret := token.NewService("some-other-secret", testRefreshSecret)
	foreignToken, _, err := otherSecret.IssueAccess(subject)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not.a.jwt"},
		{"wrong signing secret", foreignToken},
		{"refresh token as access token", refreshToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := authStack(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("without auth user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("with auth user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := WithAuthUser(context.Background(), &AuthUser{ID: uuid.New()})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
