package benchmark

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage/kvstore"
	"github.com/zumicash/zumi-go/internal/storage/memory"
)

// SessionCounts are the store sizes the scaling benchmarks use.
var SessionCounts = []int{1000, 10000, 50000}

func newSession(b *testing.B, owner string) *domain.Session {
	b.Helper()
	s, err := domain.NewSession(domain.OperationShield, owner, 1.25, time.Now(), domain.DefaultSessionTTL)
	if err != nil {
		b.Fatalf("NewSession: %v", err)
	}
	return s
}

// prefill creates count sessions spread over 100 owners.
func prefill(b *testing.B, store *kvstore.SessionStore, count int) []string {
	b.Helper()
	ctx := context.Background()
	ids := make([]string, count)
	for i := 0; i < count; i++ {
		s, err := store.Create(ctx, newSession(b, fmt.Sprintf("owner-%d", i%100)))
		if err != nil {
			b.Fatalf("Create: %v", err)
		}
		ids[i] = s.ID
	}
	return ids
}

func newMemoryStore() (*memory.KV, *kvstore.SessionStore) {
	kv := memory.New()
	return kv, kvstore.NewSessionStore(kv)
}

func sizeLabel(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
