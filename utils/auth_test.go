package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("secret124", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, "user-1", "ada@example.com", true, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, AppName, claims.Issuer)
}

func TestTokenRejections(t *testing.T) {
	valid, err := GenerateToken(testSecret, "user-1", "ada@example.com", false, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(testSecret, "user-1", "ada@example.com", false, -time.Minute)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := ValidateToken("another-secret-0123456789", valid)
		assert.Error(t, err)
	})
	t.Run("expired", func(t *testing.T) {
		_, err := ValidateToken(testSecret, expired)
		assert.Error(t, err)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := ValidateToken(testSecret, "not.a.token")
		assert.Error(t, err)
	})
	t.Run("empty secret", func(t *testing.T) {
		_, err := GenerateToken("", "user-1", "ada@example.com", false, time.Hour)
		assert.Error(t, err)
	})
}
