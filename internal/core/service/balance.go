package service

import (
	"context"
	"errors"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
	"github.com/zumicash/zumi-go/internal/telemetry/metric"
)

// BalanceResult is a balance answer and where it came from.
type BalanceResult struct {
	Address         string  `json:"address"`
	PublicBalance   float64 `json:"publicBalance"`
	ShieldedBalance float64 `json:"shieldedBalance"`
	Timestamp       int64   `json:"timestamp"`
	Cached          bool    `json:"cached"`
}

// BalanceService answers balance lookups from the cache, falling back to
// the chain.
type BalanceService struct {
	cache    BalanceRepository
	sessions SessionRepository
	chain    ChainService
	metrics  *metric.Registry
	logger   logger.Logger
}

// NewBalanceService creates a BalanceService.
func NewBalanceService(cache BalanceRepository, sessions SessionRepository, chain ChainService, m *metric.Registry, log logger.Logger) *BalanceService {
	if m == nil {
		m = metric.NewRegistry()
	}
	if log == nil {
		log = logger.Default()
	}
	return &BalanceService{
		cache:    cache,
		sessions: sessions,
		chain:    chain,
		metrics:  m,
		logger:   log.With("component", "balance"),
	}
}

// Lookup returns the balances of address. Unless refresh is set a cached
// entry is served as is; otherwise the public balance is read from the
// chain, the shielded balance is derived from the owner's completed
// operations, and the pair is cached.
func (s *BalanceService) Lookup(ctx context.Context, address string, refresh bool) (*BalanceResult, error) {
	if address == "" {
		return nil, domain.ErrMissingArgument.WithDetails("address is required")
	}
	if !s.chain.ValidateAddress(ctx, address) {
		return nil, domain.ErrInvalidAddress.WithDetails(address)
	}

	if !refresh {
		entry, err := s.cache.Get(ctx, address)
		switch {
		case err == nil:
			s.metrics.BalanceLookups.WithLabelValues("cache").Inc()
			return &BalanceResult{
				Address:         address,
				PublicBalance:   entry.PublicBalance,
				ShieldedBalance: entry.ShieldedBalance,
				Timestamp:       entry.Timestamp,
				Cached:          true,
			}, nil
		case errors.Is(err, domain.ErrBalanceNotCached):
		default:
			// A broken cache should not block reads from the chain.
			s.logger.WithContext(ctx).Warn("balance cache read failed", "address", address, "error", err)
		}
	}

	public, err := s.chain.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	shielded, err := s.shieldedBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	s.metrics.BalanceLookups.WithLabelValues("chain").Inc()

	entry, err := s.cache.Put(ctx, address, public, shielded)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{
		Address:         address,
		PublicBalance:   entry.PublicBalance,
		ShieldedBalance: entry.ShieldedBalance,
		Timestamp:       entry.Timestamp,
	}, nil
}

// shieldedBalance sums completed native shields minus unshields for owner.
// Only live sessions are visible, so the figure covers the session window.
func (s *BalanceService) shieldedBalance(ctx context.Context, owner string) (float64, error) {
	sessions, err := s.sessions.ListByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, sess := range sessions {
		if sess.Status != domain.StatusCompleted || sess.TokenMint != "" {
			continue
		}
		switch sess.Type {
		case domain.OperationShield:
			total += sess.Amount
		case domain.OperationUnshield:
			total -= sess.Amount
		}
	}
	if total < 0 {
		total = 0
	}
	return total, nil
}
