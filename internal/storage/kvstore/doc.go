// Package kvstore provides the typed record stores of zumi on top of a
// storage.KV.
//
// Every record is JSON under a namespaced key:
//
//	session:<id>       SessionStore
//	proof:<hash>       ProofStore
//	balance:<address>  BalanceCache
//	counter:<name>     CounterRegistry
//	webhook:<id>       WebhookStore
//
// Records are validated before they are written and again after they are
// read. Bytes that fail either check surface as domain.ErrCorruptRecord.
// Backend failures are wrapped in domain.ErrStorageFailure.
package kvstore
