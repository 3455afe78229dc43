package domain

// Commitment levels reported by the chain for a signature.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// TxStatus is the chain's view of a submitted transaction.
type TxStatus struct {
	Signature          string  `json:"signature"`
	Found              bool    `json:"found"`
	Slot               uint64  `json:"slot,omitempty"`
	Confirmations      *uint64 `json:"confirmations,omitempty"`
	ConfirmationStatus string  `json:"confirmationStatus,omitempty"`
	Err                string  `json:"err,omitempty"`
}

// Confirmed reports whether the transaction reached at least confirmed
// commitment without an execution error.
func (s *TxStatus) Confirmed() bool {
	if s == nil || !s.Found || s.Err != "" {
		return false
	}
	return s.ConfirmationStatus == CommitmentConfirmed || s.ConfirmationStatus == CommitmentFinalized
}

// NetworkInfo identifies the chain cluster the service talks to.
type NetworkInfo struct {
	Network  string `json:"network"`
	Endpoint string `json:"endpoint"`
}
