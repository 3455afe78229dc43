package handler

import "github.com/zumicash/zumi-go/internal/core/domain"

// CreateOperationRequest is the body of POST /api/privacy/{type}.
type CreateOperationRequest struct {
	OwnerAddress string  `json:"ownerAddress"`
	Amount       float64 `json:"amount"`
	TokenMint    string  `json:"tokenMint,omitempty"`
	Recipient    string  `json:"recipient,omitempty"`

	// WalletAddress is accepted in place of OwnerAddress.
	WalletAddress string `json:"walletAddress,omitempty"`
}

// Owner returns the owner address, preferring ownerAddress.
func (r *CreateOperationRequest) Owner() string {
	if r.OwnerAddress != "" {
		return r.OwnerAddress
	}
	return r.WalletAddress
}

// CreateOperationResponse is returned by POST /api/privacy/{type}.
type CreateOperationResponse struct {
	Success         bool                `json:"success"`
	SessionID       string              `json:"sessionId"`
	ShieldedAddress string              `json:"shieldedAddress,omitempty"`
	Amount          float64             `json:"amount"`
	Proof           domain.ProofSummary `json:"proof"`
	Status          string              `json:"status"`
	Message         string              `json:"message"`
	ExpiresIn       int64               `json:"expiresIn"`
}

// SessionView is the public shape of a session.
type SessionView struct {
	SessionID       string  `json:"sessionId"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	OwnerAddress    string  `json:"ownerAddress"`
	Amount          float64 `json:"amount"`
	TokenMint       string  `json:"tokenMint,omitempty"`
	ProofHash       string  `json:"proofHash,omitempty"`
	TxSignature     string  `json:"txSignature,omitempty"`
	ShieldedAddress string  `json:"shieldedAddress,omitempty"`
	CreatedAt       int64   `json:"createdAt"`
	UpdatedAt       int64   `json:"updatedAt"`
	ExpiresAt       int64   `json:"expiresAt"`
	Version         uint64  `json:"version"`
}

func newSessionView(s *domain.Session) SessionView {
	return SessionView{
		SessionID:       s.ID,
		Type:            string(s.Type),
		Status:          string(s.Status),
		OwnerAddress:    s.OwnerAddress,
		Amount:          s.Amount,
		TokenMint:       s.TokenMint,
		ProofHash:       s.ProofHash,
		TxSignature:     s.ChainReference,
		ShieldedAddress: s.ShieldedAddress,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		ExpiresAt:       s.ExpiresAt,
		Version:         s.Version,
	}
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Success bool        `json:"success"`
	Session SessionView `json:"session"`
}

// SessionListResponse wraps sessions listed by owner.
type SessionListResponse struct {
	Success  bool          `json:"success"`
	Sessions []SessionView `json:"sessions"`
	Total    int           `json:"total"`
}

// UpdateStatusRequest is the body of POST /api/privacy/sessions/:id/status.
type UpdateStatusRequest struct {
	Status          string `json:"status"`
	TxSignature     string `json:"txSignature,omitempty"`
	ExpectedVersion uint64 `json:"expectedVersion,omitempty"`
}

// SubmitRequest is the body of POST /api/privacy/sessions/:id/submit.
type SubmitRequest struct {
	// Transaction is the signed transaction, base64 encoded.
	Transaction string `json:"transaction"`
}

// SyncResponse is returned by POST /api/privacy/sessions/:id/sync.
type SyncResponse struct {
	Success bool             `json:"success"`
	Session SessionView      `json:"session"`
	Chain   *domain.TxStatus `json:"chain,omitempty"`
}

// WebhookRequest is the body of POST /api/webhooks/chain.
type WebhookRequest struct {
	SessionID   string `json:"sessionId"`
	Source      string `json:"source,omitempty"`
	Status      string `json:"status,omitempty"`
	TxSignature string `json:"txSignature,omitempty"`
}

// WebhookResponse acknowledges an ingested notification.
type WebhookResponse struct {
	Success bool         `json:"success"`
	EventID string       `json:"eventId"`
	Session *SessionView `json:"session,omitempty"`
}

// WebhookRecordResponse wraps the last stored notification of a session.
type WebhookRecordResponse struct {
	Success bool                  `json:"success"`
	Webhook *domain.WebhookRecord `json:"webhook"`
}

// ProofResponse wraps a stored proof record.
type ProofResponse struct {
	Success bool                `json:"success"`
	Proof   *domain.ProofRecord `json:"proof"`
}

// ProofMetadataResponse wraps proof metadata.
type ProofMetadataResponse struct {
	Success  bool                  `json:"success"`
	Metadata *domain.ProofMetadata `json:"metadata"`
}

// VerifyResponse is returned by POST /api/proofs/:hash/verify.
type VerifyResponse struct {
	Success   bool   `json:"success"`
	ProofHash string `json:"proofHash"`
	Valid     bool   `json:"valid"`
}

// VerifyBatchRequest is the body of POST /api/proofs/verify.
type VerifyBatchRequest struct {
	Hashes []string `json:"hashes"`
}

// VerifyBatchResponse maps each requested hash to its verdict.
type VerifyBatchResponse struct {
	Success bool            `json:"success"`
	Results map[string]bool `json:"results"`
}

// BalanceResponse wraps a balance lookup.
type BalanceResponse struct {
	Success bool `json:"success"`
	BalanceView
}

// BalanceView is the public shape of a balance lookup.
type BalanceView struct {
	Address         string  `json:"address"`
	PublicBalance   float64 `json:"publicBalance"`
	ShieldedBalance float64 `json:"shieldedBalance"`
	Timestamp       int64   `json:"timestamp"`
	Cached          bool    `json:"cached"`
}

// StatsResponse carries the operation counters.
type StatsResponse struct {
	Success  bool             `json:"success"`
	Counters map[string]int64 `json:"counters"`
}
