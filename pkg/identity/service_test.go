package identity

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(NewInMemRepository())
}

func TestRegister(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		identity, err := svc.Register(ctx, RegisterParams{
			Email:    "A@X.com",
			Name:     "Identity A",
			Password: "Secret123!",
		})
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", identity.Email, "email is stored lowercased")
		assert.True(t, identity.Active)
		assert.False(t, identity.Superadmin)
		assert.Empty(t, identity.DeletedAt)
	})

	t.Run("DuplicateEmailCaseInsensitive", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{
			Email:    "a@x.COM",
			Password: "Secret123!",
		})
		var taken ErrEmailTaken
		assert.ErrorAs(t, err, &taken)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{
			Email:    "b@x.com",
			Password: "short",
		})
		var complexity ErrPasswordComplexity
		assert.ErrorAs(t, err, &complexity)
	})

	t.Run("BadEmail", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{
			Email:    "not-an-email",
			Password: "Secret123!",
		})
		assert.Error(t, err)
	})
}

func TestConcurrentRegistrationSameEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, RegisterParams{
				Email:    "race@x.com",
				Password: "Secret123!",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			var taken ErrEmailTaken
			assert.ErrorAs(t, err, &taken)
		}
	}
	assert.Equal(t, 1, successes, "exactly one registration may win the unique constraint")
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{
		Email:    "a@x.com",
		Password: "Secret123!",
	})
	require.NoError(t, err)

	t.Run("Valid", func(t *testing.T) {
		identity, err := svc.Authenticate(ctx, "a@x.com", "Secret123!")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, identity.ID)
	})

	t.Run("CaseInsensitiveEmail", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "A@X.Com", "Secret123!")
		assert.NoError(t, err)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "a@x.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmailSameError", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@x.com", "Secret123!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("DeactivatedSameError", func(t *testing.T) {
		require.NoError(t, svc.Deactivate(ctx, registered.ID))
		_, err := svc.Authenticate(ctx, "a@x.com", "Secret123!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestChangePassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{
		Email:    "a@x.com",
		Password: "Secret123!",
	})
	require.NoError(t, err)

	t.Run("WrongCurrentPassword", func(t *testing.T) {
		err := svc.ChangePassword(ctx, registered.ID, "nope", "NewSecret123!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Valid", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, registered.ID, "Secret123!", "NewSecret123!"))

		_, err := svc.Authenticate(ctx, "a@x.com", "Secret123!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "a@x.com", "NewSecret123!")
		assert.NoError(t, err)
	})
}

func TestUpdateProfileKeepsEmailUnique(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterParams{Email: "a@x.com", Password: "Secret123!"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterParams{Email: "b@x.com", Password: "Secret123!"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, UpdateParams{ID: first.ID, Email: "b@x.com", Name: "A"})
	var taken ErrEmailTaken
	assert.ErrorAs(t, err, &taken)
}
