// Package httpserver provides the HTTP/HTTPS server for zumi.
//
// Routing and middleware are built on gin:
//
//   - Privacy endpoints: /api/privacy/{type}, /api/privacy/sessions/*
//   - Lookup endpoints: /api/balance/:address, /api/proofs/:hash, /api/stats
//   - Webhooks: /api/webhooks/chain
//   - Admin endpoints: /admin/v1/* (admin API key required)
//   - Health endpoints: /health, /ready, /metrics
//
// Middleware order: Recover, RequestID, Metrics, AccessLog, RateLimit.
// TLS certificates are reloaded from disk when they change.
package httpserver
