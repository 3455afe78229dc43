package domain

import (
	"math"
	"time"
)

// DefaultBalanceCacheTTL bounds how stale a cached balance may be.
const DefaultBalanceCacheTTL = 5 * time.Minute

// BalanceEntry is a cached (public, shielded) balance pair for an address.
type BalanceEntry struct {
	PublicBalance   float64 `json:"publicBalance"`
	ShieldedBalance float64 `json:"shieldedBalance"`
	Timestamp       int64   `json:"timestamp"` // Unix milliseconds
}

// Validate rejects negative or non-finite balances.
func (b *BalanceEntry) Validate() error {
	for _, v := range []float64{b.PublicBalance, b.ShieldedBalance} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return ErrValidation.WithDetails("balances must be finite and non-negative")
		}
	}
	if b.Timestamp <= 0 {
		return ErrValidation.WithDetails("timestamp is required")
	}
	return nil
}
