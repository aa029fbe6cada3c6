package auth_test

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkuznetsov/bookstore-api/internal/auth"
)

func TestManager_IssueAndParse(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour, 15*time.Minute)
	userID := uuid.Must(uuid.NewV4())

	token, err := manager.IssueToken(userID, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID, "every token must carry a jti")
}

func TestManager_TokenIDsAreUnique(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour, 15*time.Minute)
	userID := uuid.Must(uuid.NewV4())

	first, err := manager.IssueToken(userID, "user")
	require.NoError(t, err)
	second, err := manager.IssueToken(userID, "user")
	require.NoError(t, err)

	firstClaims, err := manager.ParseToken(first)
	require.NoError(t, err)
	secondClaims, err := manager.ParseToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestManager_IssueResetToken_ShortLifetime(t *testing.T) {
	manager := auth.NewManager("test-secret", 24*time.Hour, 15*time.Minute)
	userID := uuid.Must(uuid.NewV4())

	token, err := manager.IssueResetToken(userID, "user")
	require.NoError(t, err)

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 15*time.Minute, lifetime, "reset tokens must not live as long as login tokens")
}

func TestManager_ParseToken_Invalid(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour, 15*time.Minute)
	userID := uuid.Must(uuid.NewV4())

	t.Run("garbage", func(t *testing.T) {
		_, err := manager.ParseToken("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong_secret", func(t *testing.T) {
		other := auth.NewManager("other-secret", time.Hour, 15*time.Minute)
		token, err := other.IssueToken(userID, "user")
		require.NoError(t, err)

		_, err = manager.ParseToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := auth.NewManager("test-secret", -time.Minute, 15*time.Minute)
		token, err := expired.IssueToken(userID, "user")
		require.NoError(t, err)

		_, err = manager.ParseToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("unexpected_signing_method", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject: userID.String(),
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = manager.ParseToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
