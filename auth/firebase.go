package auth

import (
	"context"
	"errors"
	"fmt"

	"locallink-be/models"

	"github.com/golang-jwt/jwt/v5"
)

// FirebaseVerifier checks Firebase ID tokens: RS256 signed by one of Google's
// securetoken keys, audience equal to the project id and a matching issuer.
type FirebaseVerifier struct {
	keys   *KeySet
	parser *jwt.Parser
}

func NewFirebaseVerifier(projectID string, keys *KeySet) *FirebaseVerifier {
	return &FirebaseVerifier{
		keys: keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithAudience(projectID),
			jwt.WithIssuer("https://securetoken.google.com/"+projectID),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}
}

func (v *FirebaseVerifier) Mode() string { return ModeFirebase }

func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (models.Identity, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no key id")
		}
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return models.Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	identity := identityFromClaims(claims)
	identity.UID = sub
	return identity, nil
}
