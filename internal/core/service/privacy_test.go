package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
)

func TestPrivacyService_CreateOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.counters.Read(ctx, "total_shields")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if before != 0 {
		t.Fatalf("total_shields = %d before any operation", before)
	}

	res, err := f.privacy.CreateOperation(ctx, &CreateOperationRequest{
		Type:         domain.OperationShield,
		OwnerAddress: ownerW1,
		Amount:       10,
	})
	if err != nil {
		t.Fatalf("CreateOperation: %v", err)
	}
	if res.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", res.ExpiresIn)
	}
	if res.Proof.ProofHash != "h1" || res.Session.ProofHash != "h1" {
		t.Errorf("proof hash = %q / %q, want h1", res.Proof.ProofHash, res.Session.ProofHash)
	}
	if res.Session.ShieldedAddress == "" {
		t.Error("shielded address not derived")
	}

	after, _ := f.counters.Read(ctx, "total_shields")
	if after != 1 {
		t.Errorf("total_shields = %d, want 1", after)
	}

	got, err := f.privacy.GetOperation(ctx, domain.OperationShield, res.Session.ID)
	if err != nil {
		t.Fatalf("GetOperation: %v", err)
	}
	if got.Status != domain.StatusPending || got.Amount != 10 || got.ProofHash != "h1" {
		t.Errorf("session = %+v, want pending/10/h1", got)
	}

	if _, err := f.proofs.Fetch(ctx, "h1"); err != nil {
		t.Errorf("proof not persisted: %v", err)
	}
}

func TestPrivacyService_CreateOperationRejectsInput(t *testing.T) {
	tests := []struct {
		name string
		req  CreateOperationRequest
		want error
	}{
		{"negative amount", CreateOperationRequest{Type: domain.OperationShield, OwnerAddress: ownerW1, Amount: -5}, domain.ErrInvalidArgument},
		{"zero amount", CreateOperationRequest{Type: domain.OperationShield, OwnerAddress: ownerW1, Amount: 0}, domain.ErrInvalidArgument},
		{"missing owner", CreateOperationRequest{Type: domain.OperationShield, Amount: 1}, domain.ErrMissingArgument},
		{"invalid owner", CreateOperationRequest{Type: domain.OperationShield, OwnerAddress: "nope", Amount: 1}, domain.ErrInvalidAddress},
		{"invalid recipient", CreateOperationRequest{Type: domain.OperationTransfer, OwnerAddress: ownerW1, Recipient: "nope", Amount: 1}, domain.ErrInvalidAddress},
		{"unknown type", CreateOperationRequest{Type: "swap", OwnerAddress: ownerW1, Amount: 1}, domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			_, err := f.privacy.CreateOperation(ctx, &tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("CreateOperation error = %v, want %v", err, tt.want)
			}

			stats, err := f.privacy.Stats(ctx)
			if err != nil {
				t.Fatalf("Stats: %v", err)
			}
			for name, v := range stats {
				if v != 0 {
					t.Errorf("counter %s = %d after rejected request", name, v)
				}
			}
			list, _ := f.sessions.ListByOwner(ctx, ownerW1)
			if len(list) != 0 {
				t.Errorf("%d sessions persisted after rejected request", len(list))
			}
		})
	}
}

func TestPrivacyService_CreateOperationProverFailure(t *testing.T) {
	f := newFixture(t)
	f.prover.err = domain.ErrProofGeneration

	_, err := f.privacy.CreateOperation(context.Background(), &CreateOperationRequest{
		Type: domain.OperationUnshield, OwnerAddress: ownerW1, Amount: 1,
	})
	if !errors.Is(err, domain.ErrProofGeneration) {
		t.Fatalf("error = %v, want ErrProofGeneration", err)
	}
	if n, _ := f.counters.Read(context.Background(), "total_unshields"); n != 0 {
		t.Errorf("total_unshields = %d, want 0", n)
	}
}

// failingProofs and failingCounters report every write as a storage failure.
type failingProofs struct{ ProofRepository }

func (failingProofs) Store(context.Context, *domain.ProofRecord) error {
	return domain.ErrStorageFailure
}

type failingCounters struct{ CounterRepository }

func (failingCounters) Increment(context.Context, string) (int64, error) {
	return 0, domain.ErrStorageFailure
}

func TestPrivacyService_CreateOperationStoreFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, deps *PrivacyDeps)
	}{
		{"proof store", func(_ *fixture, deps *PrivacyDeps) { deps.Proofs = failingProofs{} }},
		{"counter", func(f *fixture, deps *PrivacyDeps) { deps.Counters = failingCounters{f.counters} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			deps := PrivacyDeps{
				Sessions: f.sessions,
				Proofs:   f.proofs,
				Counters: f.counters,
				Webhooks: f.webhooks,
				Chain:    f.chain,
				Prover:   f.prover,
			}
			tt.setup(f, &deps)
			svc := NewPrivacyService(deps, PrivacyConfig{Clock: f.clock.Now})

			res, err := svc.CreateOperation(context.Background(), &CreateOperationRequest{
				Type: domain.OperationShield, OwnerAddress: ownerW1, Amount: 10,
			})
			if !errors.Is(err, domain.ErrStorageFailure) {
				t.Fatalf("CreateOperation error = %v, want ErrStorageFailure", err)
			}
			if res != nil {
				t.Errorf("result = %+v, want nil", res)
			}
		})
	}
}

// tickingClock moves forward a millisecond on every read.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func TestPrivacyService_CreateOperationExpiresIn(t *testing.T) {
	f := newFixture(t)
	clock := &tickingClock{now: f.clock.Now()}
	svc := NewPrivacyService(PrivacyDeps{
		Sessions: f.sessions,
		Proofs:   f.proofs,
		Counters: f.counters,
		Webhooks: f.webhooks,
		Chain:    f.chain,
		Prover:   f.prover,
	}, PrivacyConfig{Clock: clock.Now})

	res, err := svc.CreateOperation(context.Background(), &CreateOperationRequest{
		Type: domain.OperationShield, OwnerAddress: ownerW1, Amount: 1,
	})
	if err != nil {
		t.Fatalf("CreateOperation: %v", err)
	}
	if res.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", res.ExpiresIn)
	}
}

func TestPrivacyService_GetOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.shield(t, ownerW1, 1)

	tests := []struct {
		name string
		op   domain.OperationType
		id   string
		want error
	}{
		{"unknown id", domain.OperationShield, "SHIELD_01J9ZQ4W6P3V8D2K5T7XGHMNRB", domain.ErrSessionNotFound},
		{"malformed id", domain.OperationShield, "garbage", domain.ErrSessionNotFound},
		{"missing id", domain.OperationShield, "", domain.ErrMissingArgument},
		{"wrong type", domain.OperationBridge, s.ID, domain.ErrSessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.privacy.GetOperation(ctx, tt.op, tt.id); !errors.Is(err, tt.want) {
				t.Errorf("GetOperation = %v, want %v", err, tt.want)
			}
		})
	}

	f.clock.Advance(time.Hour + time.Millisecond)
	if _, err := f.privacy.GetOperation(ctx, "", s.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expired session: %v, want ErrSessionNotFound", err)
	}
}

func TestPrivacyService_ListByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.shield(t, ownerW1, 1)
	f.clock.Advance(time.Second)
	second := f.shield(t, ownerW1, 2)
	f.shield(t, ownerW2, 3)

	list, err := f.privacy.ListByOwner(ctx, ownerW1)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("ListByOwner returned %d sessions in wrong order", len(list))
	}

	if _, err := f.privacy.ListByOwner(ctx, " "); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("blank owner: %v, want ErrMissingArgument", err)
	}
}

func TestPrivacyService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.shield(t, ownerW1, 1)

	updated, err := f.privacy.UpdateStatus(ctx, &UpdateStatusRequest{
		SessionID:   s.ID,
		Status:      domain.StatusProcessing,
		TxSignature: "sig1",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.StatusProcessing || updated.ChainReference != "sig1" || updated.Version != 2 {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := f.privacy.UpdateStatus(ctx, &UpdateStatusRequest{SessionID: s.ID, Status: domain.StatusCompleted}); err != nil {
		t.Fatalf("UpdateStatus completed: %v", err)
	}
	_, err = f.privacy.UpdateStatus(ctx, &UpdateStatusRequest{SessionID: s.ID, Status: domain.StatusPending})
	if !errors.Is(err, domain.ErrStatusRegression) {
		t.Errorf("regression error = %v, want ErrStatusRegression", err)
	}

	_, err = f.privacy.UpdateStatus(ctx, &UpdateStatusRequest{SessionID: s.ID, Status: "done"})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("unknown status error = %v, want ErrInvalidArgument", err)
	}
}

func TestPrivacyService_UpdateStatusExpectedVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.shield(t, ownerW1, 1)

	_, err := f.privacy.UpdateStatus(ctx, &UpdateStatusRequest{
		SessionID:       s.ID,
		Status:          domain.StatusProcessing,
		ExpectedVersion: 7,
	})
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("error = %v, want ErrVersionConflict", err)
	}

	got, err := f.privacy.UpdateStatus(ctx, &UpdateStatusRequest{
		SessionID:       s.ID,
		Status:          domain.StatusProcessing,
		ExpectedVersion: s.Version,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Version != s.Version+1 {
		t.Errorf("version = %d, want %d", got.Version, s.Version+1)
	}
}

func TestPrivacyService_UpdateStatusConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.shield(t, ownerW1, 1)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, st := range []domain.SessionStatus{domain.StatusProcessing, domain.StatusProcessing} {
		wg.Add(1)
		go func(st domain.SessionStatus) {
			defer wg.Done()
			_, err := f.privacy.UpdateStatus(ctx, &UpdateStatusRequest{SessionID: s.ID, Status: st})
			errs <- err
		}(st)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("UpdateStatus: %v", err)
		}
	}

	got, _ := f.sessions.Get(ctx, s.ID)
	if got.Status != domain.StatusProcessing || got.Version != 3 {
		t.Errorf("final = %s v%d, want processing v3", got.Status, got.Version)
	}
}

func TestPrivacyService_SubmitTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.shield(t, ownerW1, 1)
	f.chain.submitSig, f.chain.submitConfirmed = "sigA", true
	got, err := f.privacy.SubmitTransaction(ctx, s.ID, []byte{1})
	if err != nil {
		t.Fatalf("SubmitTransaction: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.ChainReference != "sigA" {
		t.Errorf("session = %s/%s, want completed/sigA", got.Status, got.ChainReference)
	}

	if _, err := f.privacy.SubmitTransaction(ctx, s.ID, []byte{1}); !errors.Is(err, domain.ErrStatusRegression) {
		t.Errorf("resubmit on completed session: %v, want ErrStatusRegression", err)
	}

	s2 := f.shield(t, ownerW1, 1)
	f.chain.submitSig, f.chain.submitConfirmed = "sigB", false
	got, err = f.privacy.SubmitTransaction(ctx, s2.ID, []byte{1})
	if err != nil {
		t.Fatalf("SubmitTransaction: %v", err)
	}
	if got.Status != domain.StatusProcessing {
		t.Errorf("unconfirmed status = %s, want processing", got.Status)
	}

	s3 := f.shield(t, ownerW1, 1)
	f.chain.submitSig, f.chain.submitErr = "", domain.ErrUpstreamFailure
	if _, err := f.privacy.SubmitTransaction(ctx, s3.ID, []byte{1}); !errors.Is(err, domain.ErrUpstreamFailure) {
		t.Errorf("send failure: %v, want ErrUpstreamFailure", err)
	}
	if cur, _ := f.sessions.Get(ctx, s3.ID); cur.Status != domain.StatusPending {
		t.Errorf("session moved to %s after send failure", cur.Status)
	}
}

func TestPrivacyService_SyncStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.shield(t, ownerW1, 1)

	if _, _, err := f.privacy.SyncStatus(ctx, s.ID); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("sync without signature: %v, want ErrInvalidArgument", err)
	}

	if _, err := f.privacy.UpdateStatus(ctx, &UpdateStatusRequest{SessionID: s.ID, Status: domain.StatusProcessing, TxSignature: "sigS"}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, tx, err := f.privacy.SyncStatus(ctx, s.ID)
	if err != nil {
		t.Fatalf("SyncStatus: %v", err)
	}
	if tx.Found || got.Status != domain.StatusProcessing {
		t.Errorf("unknown signature should leave session processing, got %s", got.Status)
	}

	f.chain.statuses["sigS"] = &domain.TxStatus{Signature: "sigS", Found: true, ConfirmationStatus: domain.CommitmentFinalized}
	got, _, err = f.privacy.SyncStatus(ctx, s.ID)
	if err != nil {
		t.Fatalf("SyncStatus: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestPrivacyService_IngestWebhook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.shield(t, ownerW1, 1)

	rec, updated, err := f.privacy.IngestWebhook(ctx, &WebhookEvent{
		SessionID:   s.ID,
		Source:      "helius",
		Status:      domain.StatusCompleted,
		TxSignature: "sigW",
		Payload:     json.RawMessage(`{"slot":1}`),
	})
	if err != nil {
		t.Fatalf("IngestWebhook: %v", err)
	}
	if updated.Status != domain.StatusCompleted || updated.ChainReference != "sigW" {
		t.Errorf("session = %s/%s", updated.Status, updated.ChainReference)
	}

	stored, err := f.privacy.LastWebhook(ctx, s.ID)
	if err != nil {
		t.Fatalf("LastWebhook: %v", err)
	}
	if stored.EventID != rec.EventID || string(stored.Payload) != `{"slot":1}` {
		t.Errorf("stored = %+v", stored)
	}

	// A stale notification is kept but the regression is refused.
	_, _, err = f.privacy.IngestWebhook(ctx, &WebhookEvent{SessionID: s.ID, Status: domain.StatusProcessing})
	if !errors.Is(err, domain.ErrStatusRegression) {
		t.Errorf("stale webhook error = %v, want ErrStatusRegression", err)
	}
	if last, _ := f.privacy.LastWebhook(ctx, s.ID); last.Status != domain.StatusProcessing {
		t.Errorf("stale webhook not stored, last status = %s", last.Status)
	}

	if _, _, err := f.privacy.IngestWebhook(ctx, &WebhookEvent{SessionID: "SHIELD_UNKNOWN1"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("unknown session: %v, want ErrSessionNotFound", err)
	}
}
