package crm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	crm "github.com/goliatone/go-crm"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProviderVerifyIdentity(t *testing.T) {
	ctx := context.Background()
	mockTracker := new(MockUserTracker)

	provider := crm.NewUserProvider(mockTracker)

	passwordHash, err := crm.HashPassword("password123")
	require.NoError(t, err)

	t.Run("Successful verification", func(t *testing.T) {
		userID := uuid.New()
		user := &crm.User{
			ID:            userID,
			Name:          "Test User",
			Email:         "test@example.com",
			PasswordHash:  passwordHash,
			Role:          crm.RoleAdmin,
			LoginAttempts: 0,
		}

		mockTracker.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, userID.String(), identity.ID())
		assert.Equal(t, "Test User", identity.Name())
		assert.Equal(t, "test@example.com", identity.Email())
		assert.Equal(t, crm.RoleAdmin, identity.Role())

		mockTracker.AssertExpectations(t)
	})

	t.Run("Invalid password tracks the attempt", func(t *testing.T) {
		user := &crm.User{
			ID:           uuid.New(),
			Name:         "Test User",
			Email:        "test@example.com",
			PasswordHash: passwordHash,
			Role:         crm.RoleUser,
		}

		mockTracker.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "wrong_password")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, crm.ErrMismatchedHashAndPassword)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Unknown identifier reports invalid credentials", func(t *testing.T) {
		mockTracker.On("GetByIdentifier", ctx, "nobody@example.com").
			Return(nil, goerrors.New("user not found", goerrors.CategoryNotFound)).Once()

		identity, err := provider.VerifyIdentity(ctx, "nobody@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, crm.ErrMismatchedHashAndPassword)
	})

	t.Run("Store failure surfaces as internal", func(t *testing.T) {
		mockTracker.On("GetByIdentifier", ctx, "broken@example.com").
			Return(nil, errors.New("connection refused")).Once()

		identity, err := provider.VerifyIdentity(ctx, "broken@example.com", "password123")

		assert.Nil(t, identity)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to retrieve user during verification")
	})

	t.Run("Throttled after too many attempts", func(t *testing.T) {
		attemptAt := time.Now().Add(-1 * time.Hour)
		user := &crm.User{
			ID:             uuid.New(),
			Email:          "hot@example.com",
			PasswordHash:   passwordHash,
			Role:           crm.RoleUser,
			LoginAttempts:  crm.MaxLoginAttempts + 1,
			LoginAttemptAt: &attemptAt,
		}

		mockTracker.On("GetByIdentifier", ctx, "hot@example.com").Return(user, nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "hot@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, crm.ErrLoginThrottled)
	})

	t.Run("Attempt counter resets after the cooldown", func(t *testing.T) {
		attemptAt := time.Now().Add(-48 * time.Hour)
		user := &crm.User{
			ID:             uuid.New(),
			Name:           "Recovered",
			Email:          "cooled@example.com",
			PasswordHash:   passwordHash,
			Role:           crm.RoleUser,
			LoginAttempts:  crm.MaxLoginAttempts + 1,
			LoginAttemptAt: &attemptAt,
		}

		mockTracker.On("GetByIdentifier", ctx, "cooled@example.com").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "cooled@example.com", "password123")

		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, "cooled@example.com", identity.Email())
	})

	t.Run("Invalid stored role fails validation", func(t *testing.T) {
		user := &crm.User{
			ID:           uuid.New(),
			Email:        "weird@example.com",
			PasswordHash: passwordHash,
			Role:         "superuser",
		}

		mockTracker.On("GetByIdentifier", ctx, "weird@example.com").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "weird@example.com", "password123")

		assert.Nil(t, identity)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown role")
	})
}

func TestUserProviderFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()
	mockTracker := new(MockUserTracker)
	provider := crm.NewUserProvider(mockTracker)

	t.Run("Found", func(t *testing.T) {
		user := &crm.User{
			ID:    uuid.New(),
			Name:  "Lookup User",
			Email: "lookup@example.com",
			Role:  crm.RoleUser,
		}

		mockTracker.On("GetByIdentifier", ctx, "lookup@example.com").Return(user, nil).Once()

		identity, err := provider.FindIdentityByIdentifier(ctx, "lookup@example.com")

		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
	})

	t.Run("Not found", func(t *testing.T) {
		mockTracker.On("GetByIdentifier", ctx, "missing@example.com").
			Return(nil, goerrors.New("no user", goerrors.CategoryNotFound)).Once()

		identity, err := provider.FindIdentityByIdentifier(ctx, "missing@example.com")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, crm.ErrIdentityNotFound)
	})
}
