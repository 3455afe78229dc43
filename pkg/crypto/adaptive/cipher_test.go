package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i * 7)
	}
	return key
}

func TestNew_Preferred(t *testing.T) {
	c, err := New(testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Algorithm() != Preferred() {
		t.Errorf("Algorithm = %s, want %s", c.Algorithm(), Preferred())
	}
}

func TestNewWith(t *testing.T) {
	tests := []struct {
		name    string
		alg     Algorithm
		key     []byte
		wantErr bool
	}{
		{"aes", AESGCM, testKey(), false},
		{"chacha", ChaCha20, testKey(), false},
		{"default", "", testKey(), false},
		{"short key", AESGCM, make([]byte, 16), true},
		{"unknown", "rot13", testKey(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWith(tt.alg, tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWith: err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.alg != "" && c.Algorithm() != tt.alg {
				t.Errorf("Algorithm = %s, want %s", c.Algorithm(), tt.alg)
			}
		})
	}

	if _, err := NewWith(AESGCM, nil); !errors.Is(err, ErrKeySize) {
		t.Errorf("NewWith(nil key): err = %v, want ErrKeySize", err)
	}
}

func TestCipher_SealOpen(t *testing.T) {
	for _, alg := range []Algorithm{AESGCM, ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			c, err := NewWith(alg, testKey())
			if err != nil {
				t.Fatalf("NewWith: %v", err)
			}
			plain := []byte("session:01HZX")
			aad := []byte("zumi")

			sealed, err := c.Seal(plain, aad)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if len(sealed) != len(plain)+c.Overhead() {
				t.Errorf("len(sealed) = %d, want %d", len(sealed), len(plain)+c.Overhead())
			}

			got, err := c.Open(sealed, aad)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if !bytes.Equal(got, plain) {
				t.Errorf("Open = %q, want %q", got, plain)
			}

			if _, err := c.Open(sealed, []byte("other")); !errors.Is(err, ErrOpen) {
				t.Errorf("Open with wrong aad: err = %v, want ErrOpen", err)
			}

			tampered := append([]byte(nil), sealed...)
			tampered[len(tampered)-1] ^= 0xff
			if _, err := c.Open(tampered, aad); !errors.Is(err, ErrOpen) {
				t.Errorf("Open tampered: err = %v, want ErrOpen", err)
			}

			if _, err := c.Open(sealed[:4], aad); !errors.Is(err, ErrShortCiphertext) {
				t.Errorf("Open short: err = %v, want ErrShortCiphertext", err)
			}
		})
	}
}

func TestCipher_SealUniqueNonce(t *testing.T) {
	c, err := New(testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, _ := c.Seal([]byte("same"), nil)
	b, _ := c.Seal([]byte("same"), nil)
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext are identical")
	}
}
