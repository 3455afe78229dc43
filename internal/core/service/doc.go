// Package service provides the privacy operation services for zumi.
//
// Services orchestrate the stores in kvstore and the two external
// collaborators (ChainService, ProofGenerator). They depend only on the
// narrow interfaces in ports.go and are constructed once in main.
//
//   - PrivacyService: create, read, list and advance privacy operations
//   - BalanceService: cache-first balance lookup
//   - ProofService: proof lookup and verification
//   - Sweeper: removal of logically expired sessions
//   - AdminAuthenticator: argon2id admin key checks and per-client rate limits
package service
