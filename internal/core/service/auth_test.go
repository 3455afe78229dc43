package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
)

func TestHashAdminKey_Verify(t *testing.T) {
	key, hash, err := GenerateAdminKey()
	if err != nil {
		t.Fatalf("GenerateAdminKey: %v", err)
	}
	if !strings.HasPrefix(key, AdminKeyPrefix) {
		t.Errorf("key %q lacks prefix", key)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=16384,t=2,p=2$") {
		t.Errorf("hash = %q", hash)
	}
	if !verifyArgon2Hash(key, hash) {
		t.Error("key should verify against its own hash")
	}
	if verifyArgon2Hash(key+"x", hash) {
		t.Error("different key must not verify")
	}
}

func TestVerifyArgon2Hash_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plain",
		"$bcrypt$v=19$m=16384,t=2,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=16384,t=2,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=16384,t=2,p=2$!!!$aGFzaA",
		"$argon2id$v=19$m=16384,t=2,p=2$c2FsdA$",
	}
	for _, h := range tests {
		if verifyArgon2Hash("zcak_x", h) {
			t.Errorf("verifyArgon2Hash(%q) = true", h)
		}
	}
}

func TestAdminAuthenticator_Authenticate(t *testing.T) {
	key, hash, err := GenerateAdminKey()
	if err != nil {
		t.Fatalf("GenerateAdminKey: %v", err)
	}
	a := NewAdminAuthenticator(AdminAuthConfig{KeyHashes: []string{"$argon2id$broken", hash}})
	if !a.Enabled() {
		t.Fatal("Enabled() = false with a configured hash")
	}

	if err := a.Authenticate(key); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if a.cache.Len() != 1 {
		t.Errorf("cache len = %d, want 1", a.cache.Len())
	}
	// Cached path.
	if err := a.Authenticate(key); err != nil {
		t.Fatalf("Authenticate (cached): %v", err)
	}

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"missing", "", domain.ErrAPIKeyMissing},
		{"no prefix", "abc", domain.ErrAPIKeyInvalid},
		{"wrong", AdminKeyPrefix + "nope", domain.ErrAPIKeyInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.Authenticate(tt.key); !errors.Is(err, tt.want) {
				t.Errorf("Authenticate(%q) = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestAdminAuthenticator_Disabled(t *testing.T) {
	a := NewAdminAuthenticator(AdminAuthConfig{})
	if a.Enabled() {
		t.Error("Enabled() = true without hashes")
	}
	if err := a.Authenticate(AdminKeyPrefix + "x"); !errors.Is(err, domain.ErrAPIKeyInvalid) {
		t.Errorf("Authenticate = %v, want ErrAPIKeyInvalid", err)
	}
}

func TestVerifiedKeyCache_EvictsLRU(t *testing.T) {
	c := newVerifiedKeyCache(2, time.Minute)
	c.Add("a")
	c.Add("b")
	c.Valid("a") // a becomes most recent
	c.Add("c")   // evicts b

	if !c.Valid("a") || !c.Valid("c") {
		t.Error("a and c should be cached")
	}
	if c.Valid("b") {
		t.Error("b should have been evicted")
	}
}

func TestVerifiedKeyCache_Expiry(t *testing.T) {
	c := newVerifiedKeyCache(10, time.Nanosecond)
	c.Add("a")
	time.Sleep(time.Millisecond)
	if c.Valid("a") {
		t.Error("expired entry should not be valid")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after lazy removal", c.Len())
	}
}

func TestRateLimiterRegistry_Allow(t *testing.T) {
	r := NewRateLimiterRegistry(2)
	if err := r.Allow("1.2.3.4"); err != nil {
		t.Fatalf("Allow #1: %v", err)
	}
	if err := r.Allow("1.2.3.4"); err != nil {
		t.Fatalf("Allow #2: %v", err)
	}
	if err := r.Allow("1.2.3.4"); !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("Allow #3 = %v, want ErrRateLimited", err)
	}
	if err := r.Allow("5.6.7.8"); err != nil {
		t.Errorf("other client should have its own bucket: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestRateLimiterRegistry_DisabledAndPrune(t *testing.T) {
	off := NewRateLimiterRegistry(0)
	for i := 0; i < 100; i++ {
		if err := off.Allow("x"); err != nil {
			t.Fatalf("disabled registry rejected request %d", i)
		}
	}

	r := NewRateLimiterRegistry(5)
	r.idleTTL = 0
	_ = r.Allow("x")
	time.Sleep(time.Millisecond)
	if n := r.Prune(); n != 1 {
		t.Errorf("Prune = %d, want 1", n)
	}
}
