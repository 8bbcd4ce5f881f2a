package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubject() Subject {
	return Subject{
		ID:    uuid.New(),
		Email: "user@example.com",
	}
}

func TestIssueAndVerifyAccess(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret")
	sub := testSubject()

	tokenStr, expiresAt, err := svc.IssueAccess(sub)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenStr)
	assert.WithinDuration(t, time.Now().Add(DefaultAccessTokenExpiry), expiresAt, time.Minute)

	claims, err := svc.VerifyAccess(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, sub.ID.String(), claims.Subject)
	assert.Equal(t, sub.Email, claims.Email)
	assert.False(t, claims.Superadmin)
}

func TestIssueAndVerifyRefresh(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret")
	sub := testSubject()

	tokenStr, expiresAt, rotationID, err := svc.IssueRefresh(sub)
	require.NoError(t, err)
	assert.NotEmpty(t, rotationID)
	assert.WithinDuration(t, time.Now().Add(DefaultRefreshTokenExpiry), expiresAt, time.Minute)

	claims, err := svc.VerifyRefresh(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, rotationID, claims.RotationID)
	assert.Equal(t, sub.ID.String(), claims.Subject)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret")
	sub := testSubject()

	accessToken, _, err := svc.IssueAccess(sub)
	require.NoError(t, err)
	refreshToken, _, _, err := svc.IssueRefresh(sub)
	require.NoError(t, err)

	t.Run("AccessTokenRejectedAsRefresh", func(t *testing.T) {
		_, err := svc.VerifyRefresh(accessToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("RefreshTokenRejectedAsAccess", func(t *testing.T) {
		_, err := svc.VerifyAccess(refreshToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestVerifyAccessWrongSecret(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret")
	other := NewService("another-secret", "refresh-secret")

	tokenStr, _, err := svc.IssueAccess(testSubject())
	require.NoError(t, err)

	_, err = other.VerifyAccess(tokenStr)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyAccessExpired(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", WithAccessExpiry(-1*time.Minute))

	tokenStr, _, err := svc.IssueAccess(testSubject())
	require.NoError(t, err)

	_, err = svc.VerifyAccess(tokenStr)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret")

	_, err := svc.VerifyAccess("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.VerifyRefresh("")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestHash(t *testing.T) {
	h1 := Hash("some-token")
	h2 := Hash("some-token")
	h3 := Hash("another-token")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
