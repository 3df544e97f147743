package auth

import (
	"context"
	"fmt"

	"locallink-be/models"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier accepts HS256 tokens signed with the shared JWT_SECRET.
type HMACVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *HMACVerifier) Mode() string { return ModeSharedSecret }

func (v *HMACVerifier) Verify(_ context.Context, raw string) (models.Identity, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	identity := identityFromClaims(claims)
	if identity.UID == "" {
		return models.Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return identity, nil
}
