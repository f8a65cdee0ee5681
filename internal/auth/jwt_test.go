package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_ValidToken(t *testing.T) {
	token, err := SignToken("secret", Identity{UserID: "u1", Nickname: "Lin", AvatarURL: "https://img/u1.png"}, time.Hour)
	require.NoError(t, err)

	identity, err := NewJWTVerifier("secret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, "Lin", identity.Nickname)
	assert.Equal(t, "https://img/u1.png", identity.AvatarURL)
}

func TestVerify_Failures(t *testing.T) {
	verifier := NewJWTVerifier("secret")

	t.Run("wrong secret", func(t *testing.T) {
		token, err := SignToken("other", Identity{UserID: "u1"}, time.Hour)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := SignToken("secret", Identity{UserID: "u1"}, -time.Minute)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
