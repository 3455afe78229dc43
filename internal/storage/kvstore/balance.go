package kvstore

import (
	"context"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage"
)

// BalanceCache caches (public, shielded) balances per address.
// Entries are never invalidated by writes; they simply age out.
type BalanceCache struct {
	kv   storage.KV
	opts options
}

// NewBalanceCache creates a BalanceCache with the default five-minute TTL.
func NewBalanceCache(kv storage.KV, opts ...Option) *BalanceCache {
	return &BalanceCache{kv: kv, opts: newOptions(domain.DefaultBalanceCacheTTL, opts)}
}

// Put caches the balances for address and returns the stored entry.
func (c *BalanceCache) Put(ctx context.Context, address string, public, shielded float64) (*domain.BalanceEntry, error) {
	entry := &domain.BalanceEntry{
		PublicBalance:   public,
		ShieldedBalance: shielded,
		Timestamp:       c.opts.now().UnixMilli(),
	}
	data, err := encode(entry)
	if err != nil {
		return nil, err
	}
	if err := c.kv.Put(ctx, BalanceKey(address), data, c.opts.ttl); err != nil {
		return nil, wrapStorage(err, nil)
	}
	return entry, nil
}

// Get returns the cached entry or ErrBalanceNotCached.
func (c *BalanceCache) Get(ctx context.Context, address string) (*domain.BalanceEntry, error) {
	data, err := c.kv.Get(ctx, BalanceKey(address))
	if err != nil {
		return nil, wrapStorage(err, domain.ErrBalanceNotCached)
	}
	var entry domain.BalanceEntry
	if err := decode(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
