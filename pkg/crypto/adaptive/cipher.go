package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/sys/cpu"
)

// Algorithm names an AEAD construction.
type Algorithm string

const (
	AESGCM   Algorithm = "aes-gcm"
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the key length every algorithm here takes.
const KeySize = 32

var (
	ErrKeySize         = fmt.Errorf("adaptive: key must be %d bytes", KeySize)
	ErrShortCiphertext = errors.New("adaptive: ciphertext too short")
	ErrOpen            = errors.New("adaptive: message authentication failed")
)

// Cipher seals and opens messages. Safe for concurrent use.
type Cipher struct {
	alg  Algorithm
	aead cipher.AEAD
}

// Preferred returns the algorithm New selects on this machine.
func Preferred() Algorithm {
	if cpu.X86.HasAES && cpu.X86.HasPCLMULQDQ {
		return AESGCM
	}
	if cpu.ARM64.HasAES && cpu.ARM64.HasPMULL {
		return AESGCM
	}
	return ChaCha20
}

// New creates a Cipher using the preferred algorithm.
func New(key []byte) (*Cipher, error) {
	return NewWith(Preferred(), key)
}

// NewWith creates a Cipher for alg. An empty alg means Preferred.
func NewWith(alg Algorithm, key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	if alg == "" {
		alg = Preferred()
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case AESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case ChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("adaptive: unknown algorithm %q", alg)
	}
	if err != nil {
		return nil, err
	}
	return &Cipher{alg: alg, aead: aead}, nil
}

// Algorithm reports the construction in use.
func (c *Cipher) Algorithm() Algorithm {
	return c.alg
}

// Overhead is the number of bytes Seal adds to a plaintext.
func (c *Cipher) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead()
}

// Seal encrypts plaintext under a fresh random nonce and authenticates aad.
func (c *Cipher) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("adaptive: nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal.
func (c *Cipher) Open(sealed, aad []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns+c.aead.Overhead() {
		return nil, ErrShortCiphertext
	}
	plain, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], aad)
	if err != nil {
		return nil, ErrOpen
	}
	return plain, nil
}
