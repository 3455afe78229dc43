package kvstore

import (
	"context"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage"
)

// ProofStore keeps proof records under proof:<hash>.
type ProofStore struct {
	kv   storage.KV
	opts options
}

// NewProofStore creates a ProofStore with the default one-hour retention.
func NewProofStore(kv storage.KV, opts ...Option) *ProofStore {
	return &ProofStore{kv: kv, opts: newOptions(domain.DefaultProofRetention, opts)}
}

// Store upserts rec. The last write wins.
func (p *ProofStore) Store(ctx context.Context, rec *domain.ProofRecord) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	return wrapStorage(p.kv.Put(ctx, ProofKey(rec.ProofHash), data, p.opts.ttl), nil)
}

// Fetch returns the record or ErrProofNotFound.
func (p *ProofStore) Fetch(ctx context.Context, hash string) (*domain.ProofRecord, error) {
	data, err := p.kv.Get(ctx, ProofKey(hash))
	if err != nil {
		return nil, wrapStorage(err, domain.ErrProofNotFound)
	}
	var rec domain.ProofRecord
	if err := decode(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
