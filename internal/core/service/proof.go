package service

import (
	"context"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/telemetry/metric"
)

// MaxVerifyBatch bounds the number of hashes in one VerifyBatch call.
const MaxVerifyBatch = 100

// ProofService reads and verifies stored proofs.
type ProofService struct {
	proofs  ProofRepository
	prover  ProofGenerator
	metrics *metric.Registry
	now     func() time.Time
}

// NewProofService creates a ProofService.
func NewProofService(proofs ProofRepository, prover ProofGenerator, m *metric.Registry) *ProofService {
	if m == nil {
		m = metric.NewRegistry()
	}
	return &ProofService{proofs: proofs, prover: prover, metrics: m, now: time.Now}
}

// Get returns the stored proof for hash.
func (s *ProofService) Get(ctx context.Context, hash string) (*domain.ProofRecord, error) {
	if hash == "" {
		return nil, domain.ErrMissingArgument.WithDetails("proof hash is required")
	}
	return s.proofs.Fetch(ctx, hash)
}

// Verify fetches the proof for hash and checks it.
func (s *ProofService) Verify(ctx context.Context, hash string) (bool, error) {
	rec, err := s.Get(ctx, hash)
	if err != nil {
		return false, err
	}
	return s.verify(ctx, rec), nil
}

// Metadata describes the proof for hash without its nullifier.
func (s *ProofService) Metadata(ctx context.Context, hash string) (*domain.ProofMetadata, error) {
	rec, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &domain.ProofMetadata{
		ProofHash: rec.ProofHash,
		AgeMillis: rec.Age(s.now()).Milliseconds(),
		Valid:     s.verify(ctx, rec),
	}, nil
}

// VerifyBatch verifies each hash. Missing proofs verify as false; storage
// failures abort the batch.
func (s *ProofService) VerifyBatch(ctx context.Context, hashes []string) (map[string]bool, error) {
	if len(hashes) > MaxVerifyBatch {
		return nil, domain.ErrInvalidArgument.WithDetails("too many proof hashes")
	}
	out := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		ok, err := s.Verify(ctx, h)
		if err != nil && !domain.IsDomainError(err, domain.ErrProofNotFound.Code) &&
			!domain.IsDomainError(err, domain.ErrMissingArgument.Code) {
			return nil, err
		}
		out[h] = ok
	}
	return out, nil
}

func (s *ProofService) verify(ctx context.Context, rec *domain.ProofRecord) bool {
	ok := s.prover.Verify(ctx, rec)
	result := "invalid"
	if ok {
		result = "valid"
	}
	s.metrics.ProofVerifications.WithLabelValues(result).Inc()
	return ok
}
