package auth

import (
	"log/slog"

	"locallink-be/config"

	"github.com/redis/go-redis/v9"
)

// NewVerifier picks the strategy from configuration: Firebase, then the
// shared secret, then insecure development mode, else a verifier that refuses
// everything. The returned KeySet is non-nil only in Firebase mode.
func NewVerifier(cfg config.AuthConfig, rdb *redis.Client, logger *slog.Logger) (Verifier, *KeySet) {
	hasCredentials := cfg.FirebaseProjectID != "" || cfg.JWTSecret != ""
	if hasCredentials && cfg.InsecureDevAuth {
		logger.Warn("INSECURE_DEV_AUTH ignored because real credentials are configured")
	}

	switch {
	case cfg.FirebaseProjectID != "":
		var cache KeyCache = NewMemoryKeyCache()
		if rdb != nil {
			cache = NewRedisKeyCache(rdb)
		}
		keys := NewKeySet(NewCertFetcher(cfg.FirebaseCertsURL), cache, logger)
		logger.Info("verifying Firebase ID tokens", "project", cfg.FirebaseProjectID, "sharedCache", rdb != nil)
		return NewFirebaseVerifier(cfg.FirebaseProjectID, keys), keys

	case cfg.JWTSecret != "":
		logger.Info("verifying HS256 tokens with JWT_SECRET")
		return NewHMACVerifier(cfg.JWTSecret), nil

	case cfg.InsecureDevAuth:
		logger.Warn("INSECURE_DEV_AUTH is on: token signatures are NOT verified and every caller is an admin")
		return NewInsecureVerifier(logger), nil

	default:
		logger.Warn("no identity verifier configured: authenticated routes will reject every request")
		return UnconfiguredVerifier{}, nil
	}
}
