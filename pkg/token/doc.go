// Package token generates and compares API secrets.
//
// Secrets are a short prefix followed by Base64 RawURL random bytes, for
// example "zcak_" plus 32 characters for 24 bytes. Fingerprints are the
// hex SHA-256 of a secret and are safe to keep in memory or logs.
package token
