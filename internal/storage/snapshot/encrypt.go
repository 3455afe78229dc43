package snapshot

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/zumicash/zumi-go/pkg/crypto/adaptive"
)

var (
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase must be at least 8 characters")
	ErrPassphraseNeeded  = errors.New("snapshot: file is encrypted and no passphrase is configured")
	ErrDecryptionFailed  = errors.New("snapshot: decryption failed, wrong passphrase or corrupted data")
)

const (
	MinPassphraseLength = 8
	saltLength          = 16

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	hkdfInfo = "zumi snapshot v1"
)

// newSalt returns a fresh random salt.
func newSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("snapshot: salt: %w", err)
	}
	return salt, nil
}

// deriveKey stretches passphrase with argon2id and expands the result to
// a cipher key.
func deriveKey(passphrase, salt []byte) ([]byte, error) {
	master := argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, 32)
	defer zero(master)

	key := make([]byte, adaptive.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("snapshot: derive key: %w", err)
	}
	return key, nil
}

func newCipher(alg adaptive.Algorithm, passphrase, salt []byte) (*adaptive.Cipher, error) {
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer zero(key)
	return adaptive.NewWith(alg, key)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
