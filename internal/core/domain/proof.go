package domain

import (
	"strings"
	"time"
)

// Proof constants.
const (
	// DefaultProofRetention matches the session lifetime.
	DefaultProofRetention = DefaultSessionTTL

	// DefaultProofMaxAge is the validity window enforced by the verifier,
	// independent of store retention.
	DefaultProofMaxAge = 24 * time.Hour
)

// Proof schemes supported by the generator.
const (
	ProofSchemeSHA256 = "sha256"
	ProofSchemeMiMC   = "mimc"
)

// ProofRecord is an opaque attestation tied to a transaction description.
type ProofRecord struct {
	ProofHash  string `json:"proofHash"`
	Commitment string `json:"commitment"`
	Nullifier  string `json:"nullifier"`
	Timestamp  int64  `json:"timestamp"` // Unix milliseconds
	Scheme     string `json:"scheme,omitempty"`
}

// Validate checks the record is structurally well formed.
func (p *ProofRecord) Validate() error {
	var violations []string
	if p.ProofHash == "" {
		violations = append(violations, "proofHash is required")
	}
	if p.Commitment == "" {
		violations = append(violations, "commitment is required")
	}
	if p.Nullifier == "" {
		violations = append(violations, "nullifier is required")
	}
	if p.Timestamp <= 0 {
		violations = append(violations, "timestamp is required")
	}
	if len(violations) > 0 {
		return ErrValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Age returns how long ago the proof was generated.
func (p *ProofRecord) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-p.Timestamp) * time.Millisecond
}

// Summary is the public projection returned to API callers.
func (p *ProofRecord) Summary() ProofSummary {
	return ProofSummary{Hash: p.ProofHash, Commitment: p.Commitment}
}

// ProofSummary is the subset of a proof echoed in create responses.
type ProofSummary struct {
	Hash       string `json:"hash"`
	Commitment string `json:"commitment"`
}

// ProofMetadata describes a stored proof without exposing the nullifier.
type ProofMetadata struct {
	ProofHash string `json:"proofHash"`
	AgeMillis int64  `json:"ageMs"`
	Valid     bool   `json:"valid"`
}

// TransactionDescriptor is the input the proof generator binds to.
type TransactionDescriptor struct {
	From      string            `json:"from,omitempty"`
	To        string            `json:"to,omitempty"`
	Amount    float64           `json:"amount"`
	TokenMint string            `json:"tokenMint,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
