// Package storage provides the key-value layer for zumi.
//
// Every record the service keeps (sessions, proofs, cached balances,
// counters, webhook payloads) lives in a KV backend behind the KV interface:
//
//   - memory: sharded in-process map with lazy expiry (tests, single node)
//   - badger: embedded Badger v3 with native entry TTLs
//   - rediskv: remote Redis via go-redis
//
// Backends only move bytes. Typed records and their validation live in
// the kvstore package.
package storage
