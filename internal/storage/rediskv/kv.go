// Package rediskv implements storage.KV on a remote Redis server.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zumicash/zumi-go/internal/storage"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 256

// Config holds Redis connection settings.
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KV is a storage.KV backed by go-redis.
type KV struct {
	client *redis.Client
}

var _ storage.KV = (*KV)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*KV, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	opts := &redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		DisableIdentity: true,
		// Every reply the KV reads is a RESP2 type.
		Protocol: 2,
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &KV{client: client}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *KV {
	return &KV{client: client}
}

// Put runs SET with an expiry when ttl > 0.
func (kv *KV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return mapErr(kv.client.Set(ctx, key, value, ttl).Err())
}

// Get runs GET.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := kv.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, mapErr(err)
	}
	return val, nil
}

// Delete runs DEL.
func (kv *KV) Delete(ctx context.Context, key string) error {
	return mapErr(kv.client.Del(ctx, key).Err())
}

// ScanPrefix walks SCAN MATCH prefix* to completion.
func (kv *KV) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(prefix) + "*"
	seen := make(map[string]struct{})

	var cursor uint64
	for {
		keys, next, err := kv.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, mapErr(err)
		}
		for _, k := range keys {
			seen[k] = struct{}{}
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	// SCAN may return a key more than once.
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Increment runs INCR, which leaves an existing TTL in place.
func (kv *KV) Increment(ctx context.Context, key string) (int64, error) {
	n, err := kv.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

// Ping runs PING.
func (kv *KV) Ping(ctx context.Context) error {
	return mapErr(kv.client.Ping(ctx).Err())
}

// Close closes the connection pool.
func (kv *KV) Close() error {
	return kv.client.Close()
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return storage.ErrKeyNotFound
	case errors.Is(err, redis.ErrClosed):
		return storage.ErrClosed
	case strings.Contains(err.Error(), "not an integer"):
		return storage.ErrNotInteger
	default:
		return err
	}
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
