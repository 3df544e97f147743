package authUtils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	signed, err := GenerateToken(TokenClaims{UID: "u1", Email: "ann@example.com", Role: "admin"}, "secret", time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return []byte("secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)

	assert.Equal(t, "u1", claims["sub"])
	assert.Equal(t, "ann@example.com", claims["email"])
	assert.Equal(t, "admin", claims["role"])
	assert.NotContains(t, claims, "name")
	assert.NotContains(t, claims, "admin")
}

func TestGenerateTokenRequiresSecretAndSubject(t *testing.T) {
	_, err := GenerateToken(TokenClaims{UID: "u1"}, "", time.Hour)
	assert.Error(t, err)

	_, err = GenerateToken(TokenClaims{}, "secret", time.Hour)
	assert.Error(t, err)
}
