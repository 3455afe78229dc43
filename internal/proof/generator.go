package proof

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"

	"github.com/zumicash/zumi-go/internal/core/domain"
)

// nonceSize is the number of random bytes mixed into every proof hash.
const nonceSize = 16

// Generator produces and checks proof records.
type Generator struct {
	scheme  string
	maxAge  time.Duration
	now     func() time.Time
	entropy io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxAge sets how long a proof verifies after generation.
func WithMaxAge(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.maxAge = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithEntropy overrides the nonce source.
func WithEntropy(r io.Reader) Option {
	return func(g *Generator) { g.entropy = r }
}

// New creates a Generator for scheme ("sha256" or "mimc").
func New(scheme string, opts ...Option) (*Generator, error) {
	if scheme == "" {
		scheme = domain.ProofSchemeSHA256
	}
	if !SupportedScheme(scheme) {
		return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown proof scheme %q", scheme))
	}
	g := &Generator{
		scheme:  scheme,
		maxAge:  domain.DefaultProofMaxAge,
		now:     time.Now,
		entropy: rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// SupportedScheme reports whether scheme can be generated and verified.
func SupportedScheme(scheme string) bool {
	return scheme == domain.ProofSchemeSHA256 || scheme == domain.ProofSchemeMiMC
}

// Scheme returns the scheme used for new proofs.
func (g *Generator) Scheme() string {
	return g.scheme
}

type hashInput struct {
	Transaction domain.TransactionDescriptor `json:"transaction"`
	Timestamp   int64                        `json:"timestamp"`
	Nonce       string                       `json:"nonce"`
}

// Generate creates a proof record for desc.
func (g *Generator) Generate(_ context.Context, desc domain.TransactionDescriptor) (*domain.ProofRecord, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(g.entropy, nonce); err != nil {
		return nil, domain.ErrProofGeneration.WithCause(err)
	}

	ts := g.now().UnixMilli()
	payload, err := json.Marshal(hashInput{Transaction: desc, Timestamp: ts, Nonce: hex.EncodeToString(nonce)})
	if err != nil {
		return nil, domain.ErrProofGeneration.WithCause(err)
	}
	sum := sha256.Sum256(payload)
	hash := hex.EncodeToString(sum[:])

	commitment, nullifier, err := Derive(g.scheme, hash)
	if err != nil {
		return nil, domain.ErrProofGeneration.WithCause(err)
	}

	return &domain.ProofRecord{
		ProofHash:  hash,
		Commitment: commitment,
		Nullifier:  nullifier,
		Timestamp:  ts,
		Scheme:     g.scheme,
	}, nil
}

// Verify reports whether rec is complete, re-derives under its scheme and
// is younger than the maximum age.
func (g *Generator) Verify(_ context.Context, rec *domain.ProofRecord) bool {
	if rec == nil || rec.ProofHash == "" || rec.Commitment == "" || rec.Nullifier == "" || rec.Timestamp <= 0 {
		return false
	}
	scheme := rec.Scheme
	if scheme == "" {
		scheme = domain.ProofSchemeSHA256
	}
	commitment, nullifier, err := Derive(scheme, rec.ProofHash)
	if err != nil {
		return false
	}
	if commitment != rec.Commitment || nullifier != rec.Nullifier {
		return false
	}
	return rec.Age(g.now()) <= g.maxAge
}

// Derive computes the commitment and nullifier of hash under scheme.
func Derive(scheme, hash string) (commitment, nullifier string, err error) {
	switch scheme {
	case domain.ProofSchemeSHA256:
		return sha256Hex("commitment_" + hash), sha256Hex("nullifier_" + hash), nil
	case domain.ProofSchemeMiMC:
		raw, err := hex.DecodeString(hash)
		if err != nil {
			return "", "", fmt.Errorf("proof hash is not hex: %w", err)
		}
		if commitment, err = mimcHex("commitment", raw); err != nil {
			return "", "", err
		}
		if nullifier, err = mimcHex("nullifier", raw); err != nil {
			return "", "", err
		}
		return commitment, nullifier, nil
	default:
		return "", "", fmt.Errorf("unknown proof scheme %q", scheme)
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// mimcHex hashes a domain tag followed by data. Each write is absorbed as
// one field element, so data must stay below the field modulus.
func mimcHex(tag string, data []byte) (string, error) {
	h := mimc.NewMiMC()
	if _, err := h.Write([]byte(tag)); err != nil {
		return "", fmt.Errorf("mimc absorb tag: %w", err)
	}
	if _, err := h.Write(data); err != nil {
		return "", fmt.Errorf("mimc absorb hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
