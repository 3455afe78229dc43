package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Server.Redis.Password != "" {
		sanitized.Server.Redis.Password = maskSecret(sanitized.Server.Redis.Password)
	}
	if sanitized.Storage.Redis.Password != "" {
		sanitized.Storage.Redis.Password = maskSecret(sanitized.Storage.Redis.Password)
	}
	if sanitized.Storage.Memory.SnapshotPassphrase != "" {
		sanitized.Storage.Memory.SnapshotPassphrase = maskSecret(sanitized.Storage.Memory.SnapshotPassphrase)
	}
	if n := len(cfg.Security.AdminKeyHashes); n > 0 {
		masked := make([]string, n)
		for i, h := range cfg.Security.AdminKeyHashes {
			masked[i] = maskSecret(h)
		}
		sanitized.Security.AdminKeyHashes = masked
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
