package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

// DefaultLength is the default number of random bytes in a secret.
const DefaultLength = 24

// ErrInvalidLength is returned for a non-positive byte length.
var ErrInvalidLength = errors.New("token: length must be positive")

// Bytes returns n random bytes from crypto/rand.
func Bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Generate returns prefix followed by n random bytes in Base64 RawURL.
func Generate(prefix string, n int) (string, error) {
	b, err := Bytes(n)
	if err != nil {
		return "", err
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// Fingerprint returns the hex SHA-256 of secret.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Equal compares a and b in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
