package service

import (
	"container/list"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/time/rate"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/pkg/token"
)

// AdminKeyPrefix marks admin API keys. The logger redacts values carrying it.
const AdminKeyPrefix = "zcak_"

// argon2id parameters for admin key hashes.
const (
	argonTime    = 2
	argonMemory  = 16384
	argonThreads = 2
	argonKeyLen  = 32
	argonSaltLen = 16
)

// AdminAuthenticator checks admin API keys against configured argon2id
// hashes. Successful checks are cached so the argon2 cost is paid once per
// key per CacheTTL.
type AdminAuthenticator struct {
	hashes []string
	cache  *verifiedKeyCache
}

// AdminAuthConfig holds configuration for AdminAuthenticator.
type AdminAuthConfig struct {
	// KeyHashes are argon2id hashes in PHC form.
	KeyHashes []string

	// CacheTTL is how long a verified key skips argon2 (default: 60s).
	CacheTTL time.Duration

	// CacheSize is the maximum number of cached keys (default: 1000).
	CacheSize int
}

// NewAdminAuthenticator creates an AdminAuthenticator.
func NewAdminAuthenticator(cfg AdminAuthConfig) *AdminAuthenticator {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 60 * time.Second
	}
	return &AdminAuthenticator{
		hashes: append([]string(nil), cfg.KeyHashes...),
		cache:  newVerifiedKeyCache(cfg.CacheSize, cfg.CacheTTL),
	}
}

// Enabled reports whether any admin key is configured.
func (a *AdminAuthenticator) Enabled() bool {
	return len(a.hashes) > 0
}

// Authenticate validates an admin key.
func (a *AdminAuthenticator) Authenticate(key string) error {
	if key == "" {
		return domain.ErrAPIKeyMissing
	}
	if !strings.HasPrefix(key, AdminKeyPrefix) {
		return domain.ErrAPIKeyInvalid.WithDetails("malformed api key")
	}

	fp := token.Fingerprint(key)
	if a.cache.Valid(fp) {
		return nil
	}
	for _, h := range a.hashes {
		if verifyArgon2Hash(key, h) {
			a.cache.Add(fp)
			return nil
		}
	}
	return domain.ErrAPIKeyInvalid
}

// GenerateAdminKey returns a new admin key and its argon2id hash.
func GenerateAdminKey() (key, hash string, err error) {
	key, err = token.Generate(AdminKeyPrefix, token.DefaultLength)
	if err != nil {
		return "", "", err
	}
	hash, err = HashAdminKey(key)
	if err != nil {
		return "", "", err
	}
	return key, hash, nil
}

// HashAdminKey hashes key with argon2id.
// Format: $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
func HashAdminKey(key string) (string, error) {
	salt, err := token.Bytes(argonSaltLen)
	if err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(key), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum)), nil
}

// verifyArgon2Hash verifies a secret against an argon2id hash, honouring
// the parameters encoded in the hash.
func verifyArgon2Hash(secret, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt, iterations, memory, threads, uint32(len(expected)))
	return token.Equal(computed, expected)
}

// ============================================================================
// verifiedKeyCache - LRU of recently verified key fingerprints
// ============================================================================

type verifiedKeyCache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	capacity int
	ttl      time.Duration
}

type verifiedEntry struct {
	fp        string
	expiresAt time.Time
}

func newVerifiedKeyCache(capacity int, ttl time.Duration) *verifiedKeyCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &verifiedKeyCache{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Valid reports whether fp was verified within the TTL.
func (c *verifiedKeyCache) Valid(fp string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[fp]
	if !ok {
		return false
	}
	if time.Now().After(elem.Value.(*verifiedEntry).expiresAt) {
		c.order.Remove(elem)
		delete(c.items, fp)
		return false
	}
	c.order.MoveToFront(elem)
	return true
}

// Add records fp as verified, evicting the least recently used entry at capacity.
func (c *verifiedKeyCache) Add(fp string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[fp]; ok {
		elem.Value.(*verifiedEntry).expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}
	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		delete(c.items, oldest.Value.(*verifiedEntry).fp)
		c.order.Remove(oldest)
	}
	c.items[fp] = c.order.PushFront(&verifiedEntry{fp: fp, expiresAt: time.Now().Add(c.ttl)})
}

// Len returns the number of cached fingerprints.
func (c *verifiedKeyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ============================================================================
// RateLimiterRegistry - per-client token buckets
// ============================================================================

// RateLimiterRegistry hands out one limiter per client key.
type RateLimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiterRegistry creates a registry allowing perSecond requests
// per client with an equal burst.
func NewRateLimiterRegistry(perSecond int) *RateLimiterRegistry {
	return &RateLimiterRegistry{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    perSecond,
		idleTTL:  10 * time.Minute,
	}
}

// Allow reports whether the client may proceed. A non-positive rate
// disables limiting.
func (r *RateLimiterRegistry) Allow(client string) error {
	if r.burst <= 0 {
		return nil
	}
	if !r.get(client).Allow() {
		return domain.ErrRateLimited
	}
	return nil
}

func (r *RateLimiterRegistry) get(client string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	e, ok := r.limiters[client]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[client] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Prune drops limiters idle longer than the idle TTL and returns how many
// were removed.
func (r *RateLimiterRegistry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.idleTTL)
	n := 0
	for k, e := range r.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(r.limiters, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked clients.
func (r *RateLimiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}
