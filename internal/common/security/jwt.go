package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const UserIDClaim = "user_id"

// TokenManager issues and verifies HS256 bearer tokens that carry only a user id.
type TokenManager struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
	}
}

// JWTAuth exposes the underlying verifier for jwtauth.Verifier.
func (m *TokenManager) JWTAuth() *jwtauth.JWTAuth {
	return m.auth
}

func (m *TokenManager) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		UserIDClaim: userID,
		"exp":       now.Add(m.ttl).Unix(),
		"iat":       now.Unix(),
	}
	_, tokenString, err := m.auth.Encode(claims)
	return tokenString, err
}

// GetUserIDFromClaims pulls the user id out of verified claims.
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims[UserIDClaim].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}
