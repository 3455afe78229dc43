package kvstore

import (
	"context"
	"errors"
	"strconv"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage"
)

// CounterRegistry holds monotonically increasing named counters.
type CounterRegistry struct {
	kv storage.KV
}

// NewCounterRegistry creates a CounterRegistry.
func NewCounterRegistry(kv storage.KV) *CounterRegistry {
	return &CounterRegistry{kv: kv}
}

// Increment bumps the counter and returns its new value.
func (c *CounterRegistry) Increment(ctx context.Context, name string) (int64, error) {
	n, err := c.kv.Increment(ctx, CounterKey(name))
	if errors.Is(err, storage.ErrNotInteger) {
		return 0, domain.ErrCorruptRecord.WithCause(err)
	}
	if err != nil {
		return 0, wrapStorage(err, nil)
	}
	return n, nil
}

// Read returns the counter value, 0 if it was never incremented.
func (c *CounterRegistry) Read(ctx context.Context, name string) (int64, error) {
	data, err := c.kv.Get(ctx, CounterKey(name))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapStorage(err, nil)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, domain.ErrCorruptRecord.WithCause(err)
	}
	return n, nil
}

// ReadMany returns the values of names, with 0 for counters never touched.
func (c *CounterRegistry) ReadMany(ctx context.Context, names []string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		n, err := c.Read(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}
