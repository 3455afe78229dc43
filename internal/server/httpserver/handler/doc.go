// Package handler provides the gin handlers for zumi's HTTP API.
//
//   - privacy.go: privacy operations and their sessions
//   - lookup.go: balances, proofs, counters
//   - webhook.go: chain notifications
//   - admin.go: sweep trigger and status summary
//   - health.go: liveness and readiness
//
// Responses are flat JSON objects carrying "success". Errors use
// {success:false, error, code, request_id} with the HTTP status taken from
// the domain error code.
package handler
