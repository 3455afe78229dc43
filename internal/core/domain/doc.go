// Package domain defines the core domain models for zumi.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Session: privacy operation session with forward-only status
//   - ProofRecord: opaque proof attestation and its transaction descriptor
//   - BalanceEntry: cached (public, shielded) balance pair
//   - WebhookRecord: last chain notification for a session
//   - Errors: domain error codes shared by every transport
package domain
