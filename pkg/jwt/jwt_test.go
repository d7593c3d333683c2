package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-123456789"

func signTestToken(t *testing.T, secret string, claims Claims) string {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateAccessToken(t *testing.T) {
	service := NewService(testSecret)

	t.Run("Valid Token", func(t *testing.T) {
		userID := uuid.New()
		token := signTestToken(t, testSecret, Claims{
			UserID: userID,
			Email:  "buyer@example.com",
			Roles:  []string{"user"},
			RegisteredClaims: gojwt.RegisteredClaims{
				ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		claims, err := service.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "buyer@example.com", claims.Email)
		assert.True(t, claims.HasRole("user"))
		assert.False(t, claims.HasRole("admin"))
	})

	t.Run("Expired Token", func(t *testing.T) {
		token := signTestToken(t, testSecret, Claims{
			UserID: uuid.New(),
			RegisteredClaims: gojwt.RegisteredClaims{
				ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})

		_, err := service.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token := signTestToken(t, "a-different-secret", Claims{
			UserID: uuid.New(),
			RegisteredClaims: gojwt.RegisteredClaims{
				ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		_, err := service.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Missing User ID", func(t *testing.T) {
		token := signTestToken(t, testSecret, Claims{
			RegisteredClaims: gojwt.RegisteredClaims{
				ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		_, err := service.ValidateAccessToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing user id")
	})

	t.Run("Garbage Token", func(t *testing.T) {
		_, err := service.ValidateAccessToken("not-a-token")
		assert.Error(t, err)
	})
}
