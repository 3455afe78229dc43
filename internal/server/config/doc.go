// Package config provides server configuration for zumi.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (engines, durations, addresses)
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// ZUMI_ environment variables and flags, in that order of precedence.
package config
