package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")

	// ErrInvalidSignature is returned when the token signature is invalid.
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Identity is the authenticated caller. UserID always comes from a verified
// token, never from request bodies.
type Identity struct {
	UserID    string
	Email     string
	Nickname  string
	AvatarURL string
}

// supabaseClaims mirrors the access token layout of the hosted auth service.
type supabaseClaims struct {
	jwt.RegisteredClaims
	Email        string       `json:"email,omitempty"`
	Role         string       `json:"role,omitempty"`
	UserMetadata userMetadata `json:"user_metadata"`
}

type userMetadata struct {
	Nickname  string `json:"nickname,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
