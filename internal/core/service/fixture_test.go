package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage/kvstore"
	"github.com/zumicash/zumi-go/internal/storage/memory"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
	"github.com/zumicash/zumi-go/internal/telemetry/metric"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeChain accepts any address registered in valid.
type fakeChain struct {
	mu       sync.Mutex
	valid    map[string]bool
	balances map[string]float64
	statuses map[string]*domain.TxStatus

	submitSig       string
	submitConfirmed bool
	submitErr       error
	balanceCalls    atomic.Int64
}

func newFakeChain(addrs ...string) *fakeChain {
	c := &fakeChain{
		valid:    map[string]bool{},
		balances: map[string]float64{},
		statuses: map[string]*domain.TxStatus{},
	}
	for _, a := range addrs {
		c.valid[a] = true
	}
	return c
}

func (c *fakeChain) ValidateAddress(_ context.Context, addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid[addr]
}

func (c *fakeChain) GetBalance(_ context.Context, addr string) (float64, error) {
	c.balanceCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[addr], nil
}

func (c *fakeChain) SubmitTransaction(_ context.Context, _ []byte) (string, bool, error) {
	return c.submitSig, c.submitConfirmed, c.submitErr
}

func (c *fakeChain) GetTransactionStatus(_ context.Context, sig string) (*domain.TxStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.statuses[sig]; ok {
		return st, nil
	}
	return &domain.TxStatus{Signature: sig}, nil
}

func (c *fakeChain) CreateShieldedAddress(_ context.Context, _ string) (string, error) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", err
	}
	return base58.Encode(pub), nil
}

func (c *fakeChain) NetworkInfo() domain.NetworkInfo {
	return domain.NetworkInfo{Network: "test", Endpoint: "http://chain.invalid"}
}

// fixedProver returns a proof with a preset hash.
type fixedProver struct {
	hash  string
	valid bool
	err   error
}

func (p *fixedProver) Generate(_ context.Context, _ domain.TransactionDescriptor) (*domain.ProofRecord, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &domain.ProofRecord{
		ProofHash:  p.hash,
		Commitment: "c_" + p.hash,
		Nullifier:  "n_" + p.hash,
		Timestamp:  1_700_000_000_000,
		Scheme:     domain.ProofSchemeSHA256,
	}, nil
}

func (p *fixedProver) Verify(_ context.Context, rec *domain.ProofRecord) bool {
	return p.valid && rec != nil && rec.Commitment == "c_"+rec.ProofHash
}

type fixture struct {
	clock    *fakeClock
	kv       *memory.KV
	sessions *kvstore.SessionStore
	proofs   *kvstore.ProofStore
	balances *kvstore.BalanceCache
	counters *kvstore.CounterRegistry
	webhooks *kvstore.WebhookStore
	chain    *fakeChain
	prover   *fixedProver
	metrics  *metric.Registry
	privacy  *PrivacyService
}

const (
	ownerW1 = "W1"
	ownerW2 = "W2"
)

// newFixture shares the fake clock with the KV, so native TTLs follow it.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	return buildFixture(t, clock, memory.New(memory.WithClock(clock.Now)))
}

// newSweepFixture keeps the KV on wall time, so records outlive their
// logical deadline and only the sweeper removes them.
func newSweepFixture(t *testing.T) *fixture {
	t.Helper()
	return buildFixture(t, newFakeClock(), memory.New())
}

func buildFixture(t *testing.T, clock *fakeClock, kv *memory.KV) *fixture {
	t.Helper()
	t.Cleanup(func() { _ = kv.Close() })

	f := &fixture{
		clock:    clock,
		kv:       kv,
		sessions: kvstore.NewSessionStore(kv, kvstore.WithClock(clock.Now), kvstore.WithLogger(logger.Nop())),
		proofs:   kvstore.NewProofStore(kv, kvstore.WithClock(clock.Now)),
		balances: kvstore.NewBalanceCache(kv, kvstore.WithClock(clock.Now)),
		counters: kvstore.NewCounterRegistry(kv),
		webhooks: kvstore.NewWebhookStore(kv),
		chain:    newFakeChain(ownerW1, ownerW2),
		prover:   &fixedProver{hash: "h1", valid: true},
		metrics:  metric.NewRegistry(),
	}
	f.privacy = NewPrivacyService(PrivacyDeps{
		Sessions: f.sessions,
		Proofs:   f.proofs,
		Counters: f.counters,
		Webhooks: f.webhooks,
		Chain:    f.chain,
		Prover:   f.prover,
		Metrics:  f.metrics,
		Logger:   logger.Nop(),
	}, PrivacyConfig{Clock: clock.Now})
	return f
}

func (f *fixture) shield(t *testing.T, owner string, amount float64) *domain.Session {
	t.Helper()
	res, err := f.privacy.CreateOperation(context.Background(), &CreateOperationRequest{
		Type:         domain.OperationShield,
		OwnerAddress: owner,
		Amount:       amount,
	})
	if err != nil {
		t.Fatalf("CreateOperation: %v", err)
	}
	return res.Session
}
