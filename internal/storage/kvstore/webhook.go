package kvstore

import (
	"context"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage"
)

// WebhookStore keeps the latest chain notification per session under
// webhook:<sessionId>.
type WebhookStore struct {
	kv   storage.KV
	opts options
}

// NewWebhookStore creates a WebhookStore. The TTL applies when Store is
// called without one.
func NewWebhookStore(kv storage.KV, opts ...Option) *WebhookStore {
	return &WebhookStore{kv: kv, opts: newOptions(domain.DefaultSessionTTL, opts)}
}

// Store replaces the notification kept for rec.SessionID for ttl, counted
// from now and independent of the session's own deadline. ttl <= 0 uses the
// store default.
func (w *WebhookStore) Store(ctx context.Context, rec *domain.WebhookRecord, ttl time.Duration) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = w.opts.ttl
	}
	return wrapStorage(w.kv.Put(ctx, WebhookKey(rec.SessionID), data, ttl), nil)
}

// Fetch returns the notification for sessionID or ErrWebhookNotFound.
func (w *WebhookStore) Fetch(ctx context.Context, sessionID string) (*domain.WebhookRecord, error) {
	data, err := w.kv.Get(ctx, WebhookKey(sessionID))
	if err != nil {
		return nil, wrapStorage(err, domain.ErrWebhookNotFound)
	}
	var rec domain.WebhookRecord
	if err := decode(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
