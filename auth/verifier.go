// Package auth turns bearer tokens into verified identities.
package auth

import (
	"context"
	"errors"
	"strings"

	"locallink-be/models"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned for any token that cannot be trusted.
var ErrUnauthenticated = errors.New("unauthenticated")

// Strategy names, used in startup logs.
const (
	ModeFirebase     = "firebase"
	ModeSharedSecret = "shared-secret"
	ModeInsecure     = "insecure-dev"
	ModeUnconfigured = "unconfigured"
)

type Verifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
	Mode() string
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// identityFromClaims reads the profile claims shared by every token flavour.
// UID is uid, then user_id, then sub.
func identityFromClaims(claims jwt.MapClaims) models.Identity {
	id := models.Identity{
		UID:     stringClaim(claims, "uid"),
		Email:   stringClaim(claims, "email"),
		Name:    stringClaim(claims, "name"),
		Picture: stringClaim(claims, "picture"),
		Role:    stringClaim(claims, "role"),
	}
	if admin, ok := claims["admin"].(bool); ok {
		id.AdminClaim = admin
	}
	if id.UID == "" {
		id.UID = stringClaim(claims, "user_id")
	}
	if id.UID == "" {
		id.UID = stringClaim(claims, "sub")
	}
	return id
}
