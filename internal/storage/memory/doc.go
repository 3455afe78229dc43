// Package memory provides an in-process KV backend.
//
// Entries live in a sharded cmap.Map. Expiry is lazy: an expired entry is
// invisible to every read and is removed the first time a read or write
// touches it, or when PurgeExpired runs.
package memory
