package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
	"github.com/zumicash/zumi-go/internal/telemetry/metric"
)

// PrivacyDeps are the collaborators of PrivacyService.
type PrivacyDeps struct {
	Sessions SessionRepository
	Proofs   ProofRepository
	Counters CounterRepository
	Webhooks WebhookRepository
	Chain    ChainService
	Prover   ProofGenerator
	Metrics  *metric.Registry
	Logger   logger.Logger
}

// PrivacyConfig holds PrivacyService tunables.
type PrivacyConfig struct {
	// SessionTTL is the lifetime of a new session (default: 1h).
	SessionTTL time.Duration

	// WebhookTTL is how long ingested notifications are kept (default: store default).
	WebhookTTL time.Duration

	// Clock overrides time.Now.
	Clock func() time.Time
}

// PrivacyService handles the lifecycle of privacy operations.
type PrivacyService struct {
	sessions SessionRepository
	proofs   ProofRepository
	counters CounterRepository
	webhooks WebhookRepository
	chain    ChainService
	prover   ProofGenerator
	metrics  *metric.Registry
	logger   logger.Logger

	sessionTTL time.Duration
	webhookTTL time.Duration
	now        func() time.Time
}

// NewPrivacyService creates a PrivacyService.
func NewPrivacyService(deps PrivacyDeps, cfg PrivacyConfig) *PrivacyService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = domain.DefaultSessionTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if deps.Metrics == nil {
		deps.Metrics = metric.NewRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	return &PrivacyService{
		sessions:   deps.Sessions,
		proofs:     deps.Proofs,
		counters:   deps.Counters,
		webhooks:   deps.Webhooks,
		chain:      deps.Chain,
		prover:     deps.Prover,
		metrics:    deps.Metrics,
		logger:     deps.Logger.With("component", "privacy"),
		sessionTTL: cfg.SessionTTL,
		webhookTTL: cfg.WebhookTTL,
		now:        cfg.Clock,
	}
}

// SessionTTL returns the lifetime given to new sessions.
func (s *PrivacyService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// ============================================================================
// Create
// ============================================================================

// CreateOperationRequest contains parameters for a new privacy operation.
type CreateOperationRequest struct {
	Type         domain.OperationType
	OwnerAddress string
	Amount       float64
	TokenMint    string // Optional SPL mint
	Recipient    string // Optional, transfer and bridge destinations
}

// CreateOperationResult is the outcome of CreateOperation.
type CreateOperationResult struct {
	Session   *domain.Session
	Proof     *domain.ProofRecord
	ExpiresIn int64 // seconds
}

// CreateOperation validates the request, derives a shielded destination,
// generates a proof, persists a pending session and its proof, and bumps
// the operation counter.
//
// A failed proof or counter write is returned. The session is already
// persisted at that point and may reference a proof that was never stored.
func (s *PrivacyService) CreateOperation(ctx context.Context, req *CreateOperationRequest) (*CreateOperationResult, error) {
	res, err := s.createOperation(ctx, req)
	if err != nil {
		s.metrics.OperationsFailed.WithLabelValues(string(req.Type), errorCode(err)).Inc()
		return nil, err
	}
	s.metrics.OperationsCreated.WithLabelValues(string(req.Type)).Inc()
	return res, nil
}

func (s *PrivacyService) createOperation(ctx context.Context, req *CreateOperationRequest) (*CreateOperationResult, error) {
	log := s.logger.WithContext(ctx)

	// 1. Validate input
	if !req.Type.Valid() {
		return nil, domain.ErrInvalidArgument.WithDetails("unknown operation type " + string(req.Type))
	}
	owner := strings.TrimSpace(req.OwnerAddress)
	if owner == "" {
		return nil, domain.ErrMissingArgument.WithDetails("ownerAddress is required")
	}
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}

	// 2. Probe the owner address
	if !s.chain.ValidateAddress(ctx, owner) {
		return nil, domain.ErrInvalidAddress.WithDetails("ownerAddress is not a valid address")
	}
	if req.Recipient != "" && !s.chain.ValidateAddress(ctx, req.Recipient) {
		return nil, domain.ErrInvalidAddress.WithDetails("recipient is not a valid address")
	}

	// 3. Derive the shielded destination
	shielded, err := s.chain.CreateShieldedAddress(ctx, owner)
	if err != nil {
		return nil, err
	}

	// 4. Generate the proof
	to := req.Recipient
	if to == "" {
		to = shielded
	}
	proof, err := s.prover.Generate(ctx, domain.TransactionDescriptor{
		From:      owner,
		To:        to,
		Amount:    req.Amount,
		TokenMint: req.TokenMint,
		Metadata:  map[string]string{"type": string(req.Type)},
	})
	if err != nil {
		return nil, err
	}

	// 5. Persist the pending session
	draft, err := domain.NewSession(req.Type, owner, req.Amount, s.now(), s.sessionTTL)
	if err != nil {
		return nil, err
	}
	draft.TokenMint = req.TokenMint
	draft.ProofHash = proof.ProofHash
	draft.ShieldedAddress = shielded

	session, err := s.sessions.Create(ctx, draft)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSession) {
			log.Error("session id collision", "session_id", draft.ID)
		}
		return nil, err
	}

	// 6. Persist the proof
	if err := s.proofs.Store(ctx, proof); err != nil {
		log.Error("proof not persisted",
			"session_id", session.ID,
			"proof_hash", proof.ProofHash,
			"error", err)
		return nil, err
	}

	// 7. Count the operation
	if _, err := s.counters.Increment(ctx, req.Type.CounterName()); err != nil {
		log.Error("operation counter not incremented",
			"session_id", session.ID,
			"counter", req.Type.CounterName(),
			"error", err)
		return nil, err
	}

	log.Info("privacy operation created",
		"session_id", session.ID,
		"type", session.Type,
		"owner", session.OwnerAddress)

	return &CreateOperationResult{
		Session:   session,
		Proof:     proof,
		ExpiresIn: session.ExpiresIn(s.now()),
	}, nil
}

// ============================================================================
// Query
// ============================================================================

// GetOperation returns a live session. When op is set, a session of
// another type is reported as not found.
func (s *PrivacyService) GetOperation(ctx context.Context, op domain.OperationType, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("sessionId is required")
	}
	if !domain.IsValidSessionID(id) {
		return nil, domain.ErrSessionNotFound
	}
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if op != "" && session.Type != op {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// ListByOwner returns the owner's live sessions, newest first.
func (s *PrivacyService) ListByOwner(ctx context.Context, owner string) ([]*domain.Session, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, domain.ErrMissingArgument.WithDetails("ownerAddress is required")
	}
	return s.sessions.ListByOwner(ctx, owner)
}

// Stats returns the operation counters keyed by counter name.
func (s *PrivacyService) Stats(ctx context.Context) (map[string]int64, error) {
	return s.counters.ReadMany(ctx, CounterNames())
}

// CounterNames lists the operation counter names in type order.
func CounterNames() []string {
	names := make([]string, len(domain.OperationTypes))
	for i, t := range domain.OperationTypes {
		names[i] = t.CounterName()
	}
	return names
}

// ============================================================================
// Status updates
// ============================================================================

// UpdateStatusRequest contains parameters for a status change.
type UpdateStatusRequest struct {
	SessionID   string
	Status      domain.SessionStatus
	TxSignature string // Optional

	// ExpectedVersion, when set, is enforced and never retried.
	ExpectedVersion uint64
}

// UpdateStatus moves a session forward. Without an ExpectedVersion the
// update is conditioned on the version just read and retried once with
// fresh data on conflict.
func (s *PrivacyService) UpdateStatus(ctx context.Context, req *UpdateStatusRequest) (*domain.Session, error) {
	if req.SessionID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("sessionId is required")
	}
	if !req.Status.Valid() {
		return nil, domain.ErrInvalidArgument.WithDetails("status " + string(req.Status) + " is unknown")
	}

	changes := domain.SessionChanges{Status: &req.Status}
	if req.TxSignature != "" {
		changes.ChainReference = &req.TxSignature
	}

	if req.ExpectedVersion != 0 {
		changes.ExpectedVersion = req.ExpectedVersion
		return s.applyUpdate(ctx, req.SessionID, changes)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.sessions.Get(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		changes.ExpectedVersion = current.Version

		updated, err := s.applyUpdate(ctx, req.SessionID, changes)
		if !errors.Is(err, domain.ErrVersionConflict) {
			return updated, err
		}
		lastErr = err
		if attempt == 0 {
			s.metrics.VersionRetries.Inc()
		}
	}
	return nil, lastErr
}

func (s *PrivacyService) applyUpdate(ctx context.Context, id string, changes domain.SessionChanges) (*domain.Session, error) {
	updated, err := s.sessions.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	if changes.Status != nil {
		s.metrics.StatusUpdates.WithLabelValues(string(*changes.Status)).Inc()
	}
	s.logger.WithContext(ctx).Debug("session updated",
		"session_id", id,
		"status", updated.Status,
		"version", updated.Version)
	return updated, nil
}

// ============================================================================
// Chain interaction
// ============================================================================

// SubmitTransaction forwards a signed transaction to the chain and records
// its signature on the session. The session moves to completed when the
// chain confirms in time and to processing otherwise.
func (s *PrivacyService) SubmitTransaction(ctx context.Context, id string, signedTx []byte) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, domain.ErrStatusRegression.WithDetails("session is already " + string(session.Status))
	}

	sig, confirmed, err := s.chain.SubmitTransaction(ctx, signedTx)
	if err != nil {
		if sig == "" {
			return nil, err
		}
		s.logger.WithContext(ctx).Warn("transaction failed on chain", "session_id", id, "signature", sig, "error", err)
		return s.UpdateStatus(ctx, &UpdateStatusRequest{SessionID: id, Status: domain.StatusFailed, TxSignature: sig})
	}

	status := domain.StatusProcessing
	if confirmed {
		status = domain.StatusCompleted
	}
	return s.UpdateStatus(ctx, &UpdateStatusRequest{SessionID: id, Status: status, TxSignature: sig})
}

// SyncStatus queries the chain for the session's recorded transaction and
// advances the session when the chain has a final answer.
func (s *PrivacyService) SyncStatus(ctx context.Context, id string) (*domain.Session, *domain.TxStatus, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if session.ChainReference == "" {
		return nil, nil, domain.ErrInvalidArgument.WithDetails("session has no transaction signature")
	}

	tx, err := s.chain.GetTransactionStatus(ctx, session.ChainReference)
	if err != nil {
		return nil, nil, err
	}

	var target domain.SessionStatus
	switch {
	case tx.Found && tx.Err != "":
		target = domain.StatusFailed
	case tx.Confirmed():
		target = domain.StatusCompleted
	default:
		return session, tx, nil
	}
	if session.Status == target {
		return session, tx, nil
	}

	updated, err := s.UpdateStatus(ctx, &UpdateStatusRequest{SessionID: id, Status: target})
	if err != nil {
		return nil, nil, err
	}
	return updated, tx, nil
}

// ============================================================================
// Webhooks
// ============================================================================

// WebhookEvent is an inbound chain notification.
type WebhookEvent struct {
	SessionID   string
	Source      string
	Status      domain.SessionStatus // Optional
	TxSignature string               // Optional
	Payload     json.RawMessage      // Optional raw body
}

// IngestWebhook stores the notification for its session and applies any
// status or signature it carries. The notification is stored even when the
// status change is then rejected.
func (s *PrivacyService) IngestWebhook(ctx context.Context, ev *WebhookEvent) (*domain.WebhookRecord, *domain.Session, error) {
	if ev.SessionID == "" {
		return nil, nil, domain.ErrMissingArgument.WithDetails("sessionId is required")
	}
	if ev.Status != "" && !ev.Status.Valid() {
		return nil, nil, domain.ErrInvalidArgument.WithDetails("status " + string(ev.Status) + " is unknown")
	}
	session, err := s.GetOperation(ctx, "", ev.SessionID)
	if err != nil {
		return nil, nil, err
	}

	rec := domain.NewWebhookRecord(session.ID, s.now().UnixMilli())
	rec.Source = ev.Source
	rec.Status = ev.Status
	rec.TxSignature = ev.TxSignature
	rec.Payload = ev.Payload
	if err := s.webhooks.Store(ctx, rec, s.webhookTTL); err != nil {
		return nil, nil, err
	}

	source := ev.Source
	if source == "" {
		source = "unknown"
	}
	s.metrics.WebhooksReceived.WithLabelValues(source).Inc()

	if ev.Status == "" && ev.TxSignature == "" {
		return rec, session, nil
	}

	changes := domain.SessionChanges{}
	if ev.Status != "" {
		changes.Status = &ev.Status
	}
	if ev.TxSignature != "" {
		changes.ChainReference = &ev.TxSignature
	}
	updated, err := s.applyUpdate(ctx, session.ID, changes)
	if err != nil {
		return rec, nil, err
	}
	return rec, updated, nil
}

// LastWebhook returns the last notification stored for a session.
func (s *PrivacyService) LastWebhook(ctx context.Context, sessionID string) (*domain.WebhookRecord, error) {
	return s.webhooks.Fetch(ctx, sessionID)
}

func errorCode(err error) string {
	if code := domain.GetErrorCode(err); code != "" {
		return code
	}
	return "unknown"
}
