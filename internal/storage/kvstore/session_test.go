package kvstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage/memory"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
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

func newSessionFixture(t *testing.T) (*SessionStore, *memory.KV, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	kv := memory.New(memory.WithClock(clock.Now))
	store := NewSessionStore(kv, WithClock(clock.Now), WithLogger(logger.Nop()))
	return store, kv, clock
}

func draft(t *testing.T, owner string, now time.Time, ttl time.Duration) *domain.Session {
	t.Helper()
	s, err := domain.NewSession(domain.OperationShield, owner, 10, now, ttl)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.ProofHash = "h1"
	return s
}

func TestSessionStore_CreateGet(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now(), time.Hour)
	created, err := store.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.Version != 0 || d.CreatedAt != 0 {
		t.Error("Create must not modify the draft")
	}

	got, err := store.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := *d
	want.CreatedAt = clock.Now().UnixMilli()
	want.UpdatedAt = want.CreatedAt
	want.Version = 1
	if *got != want || *created != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestSessionStore_CreateDuplicate(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now(), time.Hour)
	if _, err := store.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, d); !errors.Is(err, domain.ErrDuplicateSession) {
		t.Errorf("second Create error = %v, want ErrDuplicateSession", err)
	}
}

func TestSessionStore_CreateInvalid(t *testing.T) {
	store, kv, clock := newSessionFixture(t)

	d := draft(t, "W1", clock.Now(), time.Hour)
	d.Amount = -5
	if _, err := store.Create(context.Background(), d); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create error = %v, want ErrValidation", err)
	}
	if kv.Len() != 0 {
		t.Error("invalid session must not be written")
	}
}

func TestSessionStore_CreatePastExpiry(t *testing.T) {
	store, kv, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now().Add(-2*time.Hour), time.Hour)
	if _, err := store.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Get(ctx, d.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get error = %v, want ErrSessionNotFound", err)
	}
	if kv.Len() != 0 {
		t.Error("session past its deadline must not be written")
	}
}

func TestSessionStore_GetExpired(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now(), time.Minute)
	if _, err := store.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock.Advance(time.Minute + time.Millisecond)
	if _, err := store.Get(ctx, d.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get after expiry error = %v, want ErrSessionNotFound", err)
	}
	if _, err := store.Get(ctx, "SHIELD_UNKNOWN"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get unknown error = %v", err)
	}
}

func TestSessionStore_Update(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now(), time.Hour)
	created, _ := store.Create(ctx, d)

	clock.Advance(time.Second)
	processing := domain.StatusProcessing
	sig := "5sig"
	got, err := store.Update(ctx, d.ID, domain.SessionChanges{Status: &processing, ChainReference: &sig})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != domain.StatusProcessing || got.ChainReference != sig {
		t.Errorf("Update result = %+v", got)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}
	if got.UpdatedAt != created.UpdatedAt+1000 {
		t.Errorf("UpdatedAt = %d, want %d", got.UpdatedAt, created.UpdatedAt+1000)
	}
	if got.ExpiresAt != created.ExpiresAt || got.CreatedAt != created.CreatedAt {
		t.Error("Update must not change createdAt or expiresAt")
	}

	stored, _ := store.Get(ctx, d.ID)
	if *stored != *got {
		t.Errorf("stored = %+v, want %+v", stored, got)
	}
}

func TestSessionStore_UpdateNeverDecreasesUpdatedAt(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now(), time.Hour)
	created, _ := store.Create(ctx, d)

	// Wall clock stepping backwards.
	clock.Advance(-10 * time.Second)
	processing := domain.StatusProcessing
	got, err := store.Update(ctx, d.ID, domain.SessionChanges{Status: &processing})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.UpdatedAt < created.UpdatedAt {
		t.Errorf("UpdatedAt decreased: %d < %d", got.UpdatedAt, created.UpdatedAt)
	}
}

func TestSessionStore_UpdateRegression(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now(), time.Hour)
	_, _ = store.Create(ctx, d)

	completed := domain.StatusCompleted
	if _, err := store.Update(ctx, d.ID, domain.SessionChanges{Status: &completed}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	for _, to := range []domain.SessionStatus{domain.StatusPending, domain.StatusProcessing, domain.StatusFailed} {
		to := to
		if _, err := store.Update(ctx, d.ID, domain.SessionChanges{Status: &to}); !errors.Is(err, domain.ErrStatusRegression) {
			t.Errorf("completed -> %s error = %v, want ErrStatusRegression", to, err)
		}
	}

	got, _ := store.Get(ctx, d.ID)
	if got.Status != domain.StatusCompleted || got.Version != 2 {
		t.Errorf("rejected updates must not persist: %+v", got)
	}
}

func TestSessionStore_UpdateVersionConflict(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now(), time.Hour)
	_, _ = store.Create(ctx, d)

	processing := domain.StatusProcessing
	if _, err := store.Update(ctx, d.ID, domain.SessionChanges{Status: &processing, ExpectedVersion: 2}); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("stale version error = %v, want ErrVersionConflict", err)
	}
	if _, err := store.Update(ctx, d.ID, domain.SessionChanges{Status: &processing, ExpectedVersion: 1}); err != nil {
		t.Fatalf("matching version: %v", err)
	}
}

// failingDelete is a KV whose Delete always fails.
type failingDelete struct{ *memory.KV }

func (failingDelete) Delete(context.Context, string) error {
	return errors.New("delete refused")
}

func TestSessionStore_UpdateExpiredDeleteFailure(t *testing.T) {
	base := newFakeClock().Now()
	var (
		mu    sync.Mutex
		calls int
		armed bool
	)
	// Once armed, the first read is still live and every later one is past expiry.
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		if !armed {
			return base
		}
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(2 * time.Hour)
	}
	kv := memory.New()
	t.Cleanup(func() { _ = kv.Close() })
	store := NewSessionStore(failingDelete{kv}, WithClock(now), WithLogger(logger.Nop()))
	ctx := context.Background()

	d := draft(t, "W1", base, time.Hour)
	if _, err := store.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mu.Lock()
	armed = true
	mu.Unlock()

	processing := domain.StatusProcessing
	_, err := store.Update(ctx, d.ID, domain.SessionChanges{Status: &processing})
	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("Update error = %v, want ErrStorageFailure", err)
	}
}

func TestSessionStore_UpdateMissing(t *testing.T) {
	store, _, _ := newSessionFixture(t)
	processing := domain.StatusProcessing
	_, err := store.Update(context.Background(), "SHIELD_NOPE", domain.SessionChanges{Status: &processing})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Update missing error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_ConcurrentUpdates(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now(), time.Hour)
	_, _ = store.Create(ctx, d)

	sig := "sigA"
	shielded := "ShieldB"
	changes := []domain.SessionChanges{
		{ChainReference: &sig},
		{ShieldedAddress: &shielded},
	}

	results := make([]*domain.Session, len(changes))
	var wg sync.WaitGroup
	for i, c := range changes {
		wg.Add(1)
		go func(i int, c domain.SessionChanges) {
			defer wg.Done()
			got, err := store.Update(ctx, d.ID, c)
			if err != nil {
				t.Errorf("Update: %v", err)
				return
			}
			results[i] = got
		}(i, c)
	}
	wg.Wait()

	final, err := store.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final.Version != 3 {
		t.Errorf("Version = %d, want 3", final.Version)
	}
	matched := false
	for _, r := range results {
		if r != nil && *r == *final {
			matched = true
		}
	}
	if !matched {
		t.Errorf("final state %+v is not any writer's full state", final)
	}
}

func TestSessionStore_ListByOwner(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		d := draft(t, "W1", clock.Now(), time.Hour)
		if _, err := store.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, d.ID)
		clock.Advance(time.Second)
	}
	other := draft(t, "W2", clock.Now(), time.Hour)
	_, _ = store.Create(ctx, other)

	got, err := store.ListByOwner(ctx, "W1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListByOwner returned %d sessions, want 3", len(got))
	}
	for i, s := range got {
		if s.ID != ids[len(ids)-1-i] {
			t.Errorf("position %d = %s, want newest first", i, s.ID)
		}
	}

	none, err := store.ListByOwner(ctx, "nobody")
	if err != nil || len(none) != 0 {
		t.Errorf("ListByOwner(nobody) = %v, %v", none, err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store, _, clock := newSessionFixture(t)
	ctx := context.Background()

	d := draft(t, "W1", clock.Now(), time.Hour)
	_, _ = store.Create(ctx, d)

	for i := 0; i < 2; i++ {
		if err := store.Delete(ctx, d.ID); err != nil {
			t.Fatalf("Delete #%d: %v", i, err)
		}
	}
	if _, err := store.Get(ctx, d.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get after delete error = %v", err)
	}
}

func TestSessionStore_DeleteExpired(t *testing.T) {
	clock := newFakeClock()
	// The KV never expires anything on its own here: the sweep is the authority.
	kv := memory.New()
	store := NewSessionStore(kv, WithClock(clock.Now), WithLogger(logger.Nop()))
	ctx := context.Background()

	short := draft(t, "W1", clock.Now(), time.Minute)
	long := draft(t, "W1", clock.Now(), time.Hour)
	_, _ = store.Create(ctx, short)
	_, _ = store.Create(ctx, long)
	_ = kv.Put(ctx, SessionKey("SHIELD_CORRUPT"), []byte("{not json"), 0)

	clock.Advance(2 * time.Minute)

	n, err := store.DeleteExpired(ctx, clock.Now())
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("first sweep removed %d, want 2 (expired + corrupt)", n)
	}

	n, err = store.DeleteExpired(ctx, clock.Now())
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep removed %d, want 0", n)
	}

	if _, err := store.Get(ctx, long.ID); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}

func TestSessionStore_CorruptRecord(t *testing.T) {
	store, kv, _ := newSessionFixture(t)
	ctx := context.Background()

	_ = kv.Put(ctx, SessionKey("SHIELD_BAD"), []byte(`{"sessionId":"SHIELD_BAD"}`), 0)
	if _, err := store.Get(ctx, "SHIELD_BAD"); !errors.Is(err, domain.ErrCorruptRecord) {
		t.Errorf("Get corrupt error = %v, want ErrCorruptRecord", err)
	}
}
