package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager(secret, time.Minute, time.Hour)

	t.Run("AccessRoundTrip", func(t *testing.T) {
		token, err := tm.GenerateAccessToken(42, "a@example.com", "admin")
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, int32(42), claims.UserID)
		assert.Equal(t, TokenTypeAccess, claims.Type)
		assert.Equal(t, "admin", claims.Role)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("RefreshType", func(t *testing.T) {
		token, err := tm.GenerateRefreshToken(42, "a@example.com")
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, TokenTypeRefresh, claims.Type)
		assert.Empty(t, claims.Role)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := NewTokenManager("another-secret-another-secret-xx", time.Minute, time.Hour).GenerateAccessToken(1, "", "user")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		past := NewTokenManager(secret, time.Minute, time.Hour).(*tokenManager)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.GenerateAccessToken(1, "", "user")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
