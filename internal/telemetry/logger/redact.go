package logger

import "strings"

// Value prefixes that mark secrets.
var sensitiveValuePrefixes = []string{
	"zcak_", // admin API key secret
}

// Key patterns whose values are never logged.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"api_key",
	"apikey",
	"private_key",
	"credential",
	"authorization",
	"bearer",
	"signed_tx",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactArgs rewrites alternating key/value pairs, masking sensitive strings.
// Non-string keys (zap.Field values) pass through untouched.
func redactArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}
	var out []any
	for i := 0; i+1 < len(args); i++ {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		val, ok := args[i+1].(string)
		if !ok {
			i++
			continue
		}
		if red := redactValue(key, val); red != val {
			if out == nil {
				out = make([]any, len(args))
				copy(out, args)
			}
			out[i+1] = red
		}
		i++
	}
	if out == nil {
		return args
	}
	return out
}

// redactValue masks a prefixed secret partially, or blanks a value whose key
// names a secret.
func redactValue(key, val string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(val, prefix) {
			return maskValue(val, prefix)
		}
	}
	if val != "" && IsSensitiveKey(key) {
		return redactedValue
	}
	return val
}

// maskValue partially masks a sensitive value, keeping prefix and hints.
// Format: prefix + first 3 chars + "..." + last 3 chars
func maskValue(value, prefix string) string {
	if len(value) <= len(prefix)+6 {
		return prefix + "***"
	}
	body := value[len(prefix):]
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString manually redacts a string value.
func RedactString(value string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return maskValue(value, prefix)
		}
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value appears to be sensitive.
func IsSensitiveValue(value string) bool {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
