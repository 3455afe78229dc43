package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zumicash/zumi-go/internal/storage"
	"github.com/zumicash/zumi-go/pkg/cmap"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// KV is an in-memory storage.KV.
type KV struct {
	items  *cmap.Map[string, entry]
	now    func() time.Time
	closed atomic.Bool
}

var _ storage.KV = (*KV)(nil)

// Option configures the KV.
type Option func(*KV)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(kv *KV) {
		kv.now = now
	}
}

// WithShards sets the shard count of the underlying map.
func WithShards(n int) Option {
	return func(kv *KV) {
		kv.items = cmap.NewWithShards[string, entry](n)
	}
}

// New creates an empty in-memory KV.
func New(opts ...Option) *KV {
	kv := &KV{
		items: cmap.New[string, entry](),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(kv)
	}
	return kv
}

// Put stores a copy of value.
func (kv *KV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if kv.closed.Load() {
		return storage.ErrClosed
	}
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = kv.now().Add(ttl)
	}
	kv.items.Set(key, e)
	return nil
}

// Get returns a copy of the stored value.
func (kv *KV) Get(_ context.Context, key string) ([]byte, error) {
	if kv.closed.Load() {
		return nil, storage.ErrClosed
	}
	e, ok := kv.items.Get(key)
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	now := kv.now()
	if e.expired(now) {
		kv.items.DeleteIf(key, func(cur entry) bool { return cur.expired(now) })
		return nil, storage.ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Delete removes key.
func (kv *KV) Delete(_ context.Context, key string) error {
	if kv.closed.Load() {
		return storage.ErrClosed
	}
	kv.items.Delete(key)
	return nil
}

// ScanPrefix returns live keys under prefix in sorted order.
func (kv *KV) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	if kv.closed.Load() {
		return nil, storage.ErrClosed
	}
	now := kv.now()
	var keys []string
	kv.items.Range(func(k string, e entry) bool {
		if strings.HasPrefix(k, prefix) && !e.expired(now) {
			keys = append(keys, k)
		}
		return ctx.Err() == nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Increment atomically bumps the decimal integer at key, keeping its expiry.
func (kv *KV) Increment(_ context.Context, key string) (int64, error) {
	if kv.closed.Load() {
		return 0, storage.ErrClosed
	}
	now := kv.now()
	var (
		result int64
		err    error
	)
	kv.items.Compute(key, func(cur entry, ok bool) (entry, bool) {
		if ok && cur.expired(now) {
			cur, ok = entry{}, false
		}
		var n int64
		if ok {
			n, err = strconv.ParseInt(string(cur.value), 10, 64)
			if err != nil {
				err = storage.ErrNotInteger
				return cur, true
			}
		}
		result = n + 1
		return entry{
			value:     []byte(strconv.FormatInt(result, 10)),
			expiresAt: cur.expiresAt,
		}, true
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

// Ping reports whether the store is open.
func (kv *KV) Ping(context.Context) error {
	if kv.closed.Load() {
		return storage.ErrClosed
	}
	return nil
}

// PurgeExpired drops every expired entry and returns how many were removed.
func (kv *KV) PurgeExpired() int {
	now := kv.now()
	var expired []string
	kv.items.Range(func(k string, e entry) bool {
		if e.expired(now) {
			expired = append(expired, k)
		}
		return true
	})

	removed := 0
	for _, k := range expired {
		if kv.items.DeleteIf(k, func(cur entry) bool { return cur.expired(now) }) {
			removed++
		}
	}
	return removed
}

// Dump calls fn for every live entry until fn returns false. expiresAt
// is zero for entries without expiry. value must not be retained.
func (kv *KV) Dump(fn func(key string, value []byte, expiresAt time.Time) bool) {
	now := kv.now()
	kv.items.Range(func(k string, e entry) bool {
		if e.expired(now) {
			return true
		}
		return fn(k, e.value, e.expiresAt)
	})
}

// Restore stores value under key with an absolute expiry. Entries that
// have already expired are dropped; Restore reports whether it stored.
func (kv *KV) Restore(key string, value []byte, expiresAt time.Time) bool {
	e := entry{value: append([]byte(nil), value...), expiresAt: expiresAt}
	if e.expired(kv.now()) || kv.closed.Load() {
		return false
	}
	kv.items.Set(key, e)
	return true
}

// Len returns the number of stored entries, expired ones included.
func (kv *KV) Len() int {
	return kv.items.Count()
}

// Close marks the store closed and drops its contents.
func (kv *KV) Close() error {
	if kv.closed.CompareAndSwap(false, true) {
		kv.items.Clear()
	}
	return nil
}
