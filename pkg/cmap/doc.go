// Package cmap provides a sharded concurrent map.
//
// Each shard is guarded by its own RWMutex, so operations on keys that
// hash to different shards never contend. Compute runs a read-modify-write
// under the shard lock and is the building block for atomic counters and
// expiry-aware reads in the in-memory KV backend.
//
// Usage:
//
//	m := cmap.New[string, entry]()
//	m.Set("key", e)
//	v, ok := m.Get("key")
package cmap
