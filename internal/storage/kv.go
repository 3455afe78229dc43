// Package storage provides storage abstractions for zumi.
//
// This file defines the KV contract every backend implements. Records are
// opaque bytes; typed encoding and validation live one layer up in kvstore.
package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv store closed")
	ErrNotInteger  = errors.New("value is not an integer")
)

// Engine names accepted by configuration.
const (
	EngineMemory = "memory"
	EngineBadger = "badger"
	EngineRedis  = "redis"
)

// KV is a key-value store with per-key expiry.
//
// All operations are atomic at the single-key level only. Implementations
// surface transport failures as errors and never retry.
type KV interface {
	// Put stores value under key. ttl <= 0 stores without expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns ErrKeyNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ScanPrefix returns all live keys starting with prefix, sorted.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)

	// Increment adds one to the integer stored at key (0 when absent) and
	// returns the new value. An existing expiry is preserved.
	Increment(ctx context.Context, key string) (int64, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
