package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a Verifier for HS256 tokens signed with secret.
func NewJWTVerifier(secret string) Verifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &supabaseClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*supabaseClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	nickname := claims.UserMetadata.Nickname
	if nickname == "" {
		nickname = claims.UserMetadata.Name
	}
	return &Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Nickname:  nickname,
		AvatarURL: claims.UserMetadata.AvatarURL,
	}, nil
}

// SignToken issues a token the verifier accepts. Used by the CLI for local
// development and by tests.
func SignToken(secret string, identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &supabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: identity.Email,
		Role:  "authenticated",
		UserMetadata: userMetadata{
			Nickname:  identity.Nickname,
			AvatarURL: identity.AvatarURL,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
