package authUtils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL matches the lifetime of the tokens this service used to issue.
const DefaultTTL = 72 * time.Hour

// TokenClaims is the identity carried by a shared-secret token.
type TokenClaims struct {
	UID   string
	Email string
	Name  string
	Role  string
	Admin bool
}

// GenerateToken signs an HS256 token for the identity with the shared secret.
func GenerateToken(claims TokenClaims, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT_SECRET environment variable is not set")
	}
	if claims.UID == "" {
		return "", errors.New("token subject is required")
	}

	now := time.Now()
	mapClaims := jwt.MapClaims{
		"sub": claims.UID,
		"uid": claims.UID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if claims.Email != "" {
		mapClaims["email"] = claims.Email
	}
	if claims.Name != "" {
		mapClaims["name"] = claims.Name
	}
	if claims.Role != "" {
		mapClaims["role"] = claims.Role
	}
	if claims.Admin {
		mapClaims["admin"] = true
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return token.SignedString([]byte(secret))
}
