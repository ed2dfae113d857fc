package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"saju-backend/internal/domain"
	"saju-backend/internal/repository/memory"
	"saju-backend/internal/security"
	"saju-backend/internal/service"
)

func newAuthService(store *memory.Store, verifier security.IdentityVerifier) (service.AuthService, security.TokenManager) {
	tm := security.NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	return service.NewAuthService(store.UserRepository, store, tm, verifier, time.Hour, []string{"Admin@Example.com"}), tm
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc, _ := newAuthService(store, nil)

	user, tokens, err := svc.Register(ctx, "kim@example.com", "password123", "김철수")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, domain.UserRoleUser, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)

	t.Run("Duplicate email", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "kim@example.com", "password123", "other")
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("Invalid input", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "not-an-email", "password123", "x")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, _, err = svc.Register(ctx, "short@example.com", "pw", "x")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Login", func(t *testing.T) {
		_, tokens, err := svc.Login(ctx, "kim@example.com", "password123")
		require.NoError(t, err)
		principal, err := svc.Authenticate(ctx, tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, principal.UserID)
		assert.Equal(t, security.TokenTypeAccess, principal.TokenType)
		assert.False(t, principal.IsAdmin())
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "kim@example.com", "wrong-password")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Me", func(t *testing.T) {
		me, balance, err := svc.Me(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "kim@example.com", me.Email)
		assert.Equal(t, int64(0), balance)
	})
}

func TestAuthService_AdminEmailGetsAdminRole(t *testing.T) {
	svc, _ := newAuthService(memory.NewStore(), nil)
	user, tokens, err := svc.Register(context.Background(), "admin@example.com", "password123", "관리자")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	principal, err := svc.Authenticate(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, principal.IsAdmin())
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	svc, tm := newAuthService(memory.NewStore(), nil)
	user, _, err := svc.Register(ctx, "lee@example.com", "password123", "이영희")
	require.NoError(t, err)

	tokens, err := svc.RefreshToken(ctx, user.ID)
	require.NoError(t, err)
	claims, err := tm.ValidateToken(tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, security.TokenTypeRefresh, claims.Type)

	_, err = svc.RefreshToken(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_AuthenticateRejectsGarbage(t *testing.T) {
	svc, _ := newAuthService(memory.NewStore(), nil)
	_, err := svc.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_ExternalIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("Provisions on first sight", func(t *testing.T) {
		store := memory.NewStore()
		verifier := new(MockIdentityVerifier)
		svc, _ := newAuthService(store, verifier)
		verifier.On("VerifyIDToken", ctx, "id-token").
			Return(&security.Identity{UID: "fb-1", Email: "park@example.com", Name: "박"}, nil).Twice()

		first, err := svc.Authenticate(ctx, "id-token")
		require.NoError(t, err)
		second, err := svc.Authenticate(ctx, "id-token")
		require.NoError(t, err)
		assert.Equal(t, first.UserID, second.UserID)

		count, err := store.UserRepository.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		balance, err := store.GetBalance(ctx, first.UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)
		verifier.AssertExpectations(t)
	})

	t.Run("Invalid ID token", func(t *testing.T) {
		verifier := new(MockIdentityVerifier)
		svc, _ := newAuthService(memory.NewStore(), verifier)
		verifier.On("VerifyIDToken", ctx, mock.Anything).Return(nil, errors.New("token expired"))

		_, err := svc.Authenticate(ctx, "stale")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Provisioned user cannot password-login", func(t *testing.T) {
		users := new(MockUserRepo)
		tm := security.NewTokenManager("s", time.Hour, time.Hour)
		svc := service.NewAuthService(users, nil, tm, nil, time.Hour, nil)
		users.On("GetByEmail", ctx, "ext@example.com").Return(&domain.User{ID: 3, Email: "ext@example.com"}, nil)

		_, _, err := svc.Login(ctx, "ext@example.com", "anything")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}
