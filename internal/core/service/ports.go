package service

import (
	"context"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
)

// SessionRepository is the session persistence used by the services.
type SessionRepository interface {
	Create(ctx context.Context, draft *domain.Session) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	Update(ctx context.Context, id string, changes domain.SessionChanges) (*domain.Session, error)
	ListByOwner(ctx context.Context, owner string) ([]*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// ProofRepository stores proof records by hash.
type ProofRepository interface {
	Store(ctx context.Context, rec *domain.ProofRecord) error
	Fetch(ctx context.Context, hash string) (*domain.ProofRecord, error)
}

// BalanceRepository caches balances by address.
type BalanceRepository interface {
	Put(ctx context.Context, address string, public, shielded float64) (*domain.BalanceEntry, error)
	Get(ctx context.Context, address string) (*domain.BalanceEntry, error)
}

// CounterRepository holds monotonically increasing named counters.
type CounterRepository interface {
	Increment(ctx context.Context, name string) (int64, error)
	Read(ctx context.Context, name string) (int64, error)
	ReadMany(ctx context.Context, names []string) (map[string]int64, error)
}

// WebhookRepository keeps the last chain notification per session.
type WebhookRepository interface {
	Store(ctx context.Context, rec *domain.WebhookRecord, ttl time.Duration) error
	Fetch(ctx context.Context, sessionID string) (*domain.WebhookRecord, error)
}

// ChainService is the blockchain collaborator.
type ChainService interface {
	// ValidateAddress is a probe: malformed input yields false, never an error.
	ValidateAddress(ctx context.Context, addr string) bool
	GetBalance(ctx context.Context, addr string) (float64, error)
	SubmitTransaction(ctx context.Context, signedTx []byte) (signature string, confirmed bool, err error)
	GetTransactionStatus(ctx context.Context, sig string) (*domain.TxStatus, error)
	CreateShieldedAddress(ctx context.Context, owner string) (string, error)
	NetworkInfo() domain.NetworkInfo
}

// ProofGenerator produces and checks proof records.
type ProofGenerator interface {
	Generate(ctx context.Context, desc domain.TransactionDescriptor) (*domain.ProofRecord, error)
	Verify(ctx context.Context, rec *domain.ProofRecord) bool
}
