// Package logger provides structured logging for zumi.
//
// This package wraps zap for structured logging:
//
//   - zap.go: zap core construction, level control, lumberjack rotation
//   - context.go: context-aware logging with request/trace IDs
//   - redact.go: sensitive data redaction
package logger
