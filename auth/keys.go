package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// GoogleCertsURL publishes the x509 certificates that sign Firebase ID tokens.
const GoogleCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const (
	defaultCertsTTL = time.Hour
	fetchTimeout    = 10 * time.Second
	redisCertsKey   = "locallink:firebase:certs"
)

// KeyCache stores the raw kid -> PEM map between fetches.
type KeyCache interface {
	Load(ctx context.Context) (map[string]string, bool, error)
	Store(ctx context.Context, certs map[string]string, ttl time.Duration) error
}

// MemoryKeyCache keeps the certificates in process.
type MemoryKeyCache struct {
	mu      sync.RWMutex
	certs   map[string]string
	expires time.Time
	now     func() time.Time
}

func NewMemoryKeyCache() *MemoryKeyCache {
	return &MemoryKeyCache{now: time.Now}
}

func (c *MemoryKeyCache) Load(context.Context) (map[string]string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.certs == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return c.certs, true, nil
}

func (c *MemoryKeyCache) Store(_ context.Context, certs map[string]string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.certs = certs
	c.expires = c.now().Add(ttl)
	return nil
}

// RedisKeyCache shares the certificates between replicas.
type RedisKeyCache struct {
	client *redis.Client
	key    string
}

func NewRedisKeyCache(client *redis.Client) *RedisKeyCache {
	return &RedisKeyCache{client: client, key: redisCertsKey}
}

func (c *RedisKeyCache) Load(ctx context.Context) (map[string]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached certs: %w", err)
	}

	var certs map[string]string
	if err := json.Unmarshal(raw, &certs); err != nil {
		return nil, false, fmt.Errorf("decode cached certs: %w", err)
	}
	return certs, true, nil
}

func (c *RedisKeyCache) Store(ctx context.Context, certs map[string]string, ttl time.Duration) error {
	raw, err := json.Marshal(certs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, ttl).Err()
}

// CertFetcher downloads the signing certificates.
type CertFetcher struct {
	url    string
	client *http.Client
}

func NewCertFetcher(url string) *CertFetcher {
	if url == "" {
		url = GoogleCertsURL
	}
	return &CertFetcher{url: url, client: &http.Client{Timeout: fetchTimeout}}
}

// Fetch returns the kid -> PEM map and how long it may be cached.
func (f *CertFetcher) Fetch(ctx context.Context) (map[string]string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch signing certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("fetch signing certs: unexpected status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return nil, 0, fmt.Errorf("decode signing certs: %w", err)
	}
	if len(certs) == 0 {
		return nil, 0, errors.New("signing cert response is empty")
	}
	return certs, maxAge(resp.Header.Get("Cache-Control")), nil
}

// maxAge reads max-age from a Cache-Control header, defaulting to an hour.
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || seconds <= 0 {
			break
		}
		return time.Duration(seconds) * time.Second
	}
	return defaultCertsTTL
}

// KeySet resolves a token's kid to an RSA public key, going through the cache
// and fetching when the cache is cold or the kid is unknown.
type KeySet struct {
	fetcher *CertFetcher
	cache   KeyCache
	logger  *slog.Logger

	mu     sync.Mutex
	parsed map[string]*rsa.PublicKey
}

func NewKeySet(fetcher *CertFetcher, cache KeyCache, logger *slog.Logger) *KeySet {
	return &KeySet{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
		parsed:  make(map[string]*rsa.PublicKey),
	}
}

// Refresh fetches the certificates and stores them in the cache.
func (k *KeySet) Refresh(ctx context.Context) (map[string]string, error) {
	certs, ttl, err := k.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := k.cache.Store(ctx, certs, ttl); err != nil {
		k.logger.Warn("could not cache signing certs", "error", err)
	}
	k.logger.Debug("refreshed signing certs", "keys", len(certs), "ttl", ttl)
	return certs, nil
}

func (k *KeySet) certs(ctx context.Context) (map[string]string, error) {
	certs, ok, err := k.cache.Load(ctx)
	if err != nil {
		k.logger.Warn("signing cert cache unavailable", "error", err)
	}
	if ok {
		return certs, nil
	}
	return k.Refresh(ctx)
}

func (k *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	certs, err := k.certs(ctx)
	if err != nil {
		return nil, err
	}

	pem, ok := certs[kid]
	if !ok {
		// Google rotates keys ahead of the cache expiry.
		if certs, err = k.Refresh(ctx); err != nil {
			return nil, err
		}
		if pem, ok = certs[kid]; !ok {
			return nil, fmt.Errorf("unknown signing key %q", kid)
		}
	}
	return k.parse(pem)
}

func (k *KeySet) parse(pem string) (*rsa.PublicKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if key, ok := k.parsed[pem]; ok {
		return key, nil
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("parse signing cert: %w", err)
	}
	k.parsed[pem] = key
	return key, nil
}
