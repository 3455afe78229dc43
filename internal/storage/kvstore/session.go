package kvstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage"
)

// lockStripes is the number of mutexes serializing in-process updates.
const lockStripes = 64

// SessionStore persists sessions under session:<id> with TTL expiresAt - now.
type SessionStore struct {
	kv   storage.KV
	opts options

	locks [lockStripes]sync.Mutex
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(kv storage.KV, opts ...Option) *SessionStore {
	return &SessionStore{
		kv:   kv,
		opts: newOptions(domain.DefaultSessionTTL, opts),
	}
}

func (s *SessionStore) lock(id string) func() {
	mu := &s.locks[murmur3.Sum32([]byte(id))%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Create stamps and persists a new session and returns the stored copy.
// The draft is not modified.
func (s *SessionStore) Create(ctx context.Context, draft *domain.Session) (*domain.Session, error) {
	now := s.opts.now()

	sess := draft.Clone()
	sess.CreatedAt = now.UnixMilli()
	sess.UpdatedAt = sess.CreatedAt
	sess.Version = 1

	data, err := encode(sess)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(sess.ID)
	defer unlock()

	if _, err := s.get(ctx, sess.ID); err == nil {
		return nil, domain.ErrDuplicateSession.WithDetails(sess.ID)
	} else if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	// Already past its deadline: never written, so never served.
	ttl := sess.RemainingTTL(now)
	if ttl <= 0 {
		s.opts.logger.Debug("session created past expiry, not persisted", "session_id", sess.ID)
		return sess, nil
	}

	if err := s.kv.Put(ctx, SessionKey(sess.ID), data, ttl); err != nil {
		return nil, wrapStorage(err, nil)
	}
	return sess, nil
}

// Get returns the session, or ErrSessionNotFound when absent or expired.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.get(ctx, id)
}

func (s *SessionStore) get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.kv.Get(ctx, SessionKey(id))
	if err != nil {
		return nil, wrapStorage(err, domain.ErrSessionNotFound)
	}
	var sess domain.Session
	if err := decode(data, &sess); err != nil {
		return nil, err
	}
	if sess.IsExpiredAt(s.opts.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

// Update applies changes with a read-modify-write and returns the new state.
func (s *SessionStore) Update(ctx context.Context, id string, changes domain.SessionChanges) (*domain.Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changes.ExpectedVersion != 0 && changes.ExpectedVersion != sess.Version {
		return nil, domain.ErrVersionConflict
	}
	if err := changes.Apply(sess); err != nil {
		return nil, err
	}

	now := s.opts.now()
	if ts := now.UnixMilli(); ts > sess.UpdatedAt {
		sess.UpdatedAt = ts
	}
	sess.Version++

	data, err := encode(sess)
	if err != nil {
		return nil, err
	}

	ttl := sess.RemainingTTL(now)
	if ttl <= 0 {
		if err := s.kv.Delete(ctx, SessionKey(id)); err != nil {
			return nil, wrapStorage(err, nil)
		}
		return nil, domain.ErrSessionNotFound
	}
	if err := s.kv.Put(ctx, SessionKey(id), data, ttl); err != nil {
		return nil, wrapStorage(err, nil)
	}
	return sess, nil
}

// ListByOwner returns the owner's live sessions, newest first.
// It scans every session key.
func (s *SessionStore) ListByOwner(ctx context.Context, owner string) ([]*domain.Session, error) {
	keys, err := s.kv.ScanPrefix(ctx, SessionPrefix)
	if err != nil {
		return nil, wrapStorage(err, nil)
	}

	out := make([]*domain.Session, 0)
	for _, key := range keys {
		sess, err := s.get(ctx, key[len(SessionPrefix):])
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSessionNotFound):
			continue
		case errors.Is(err, domain.ErrCorruptRecord):
			s.opts.logger.Warn("skipping corrupt session record", "record", key, "error", err)
			continue
		default:
			return nil, err
		}
		if sess.OwnerAddress == owner {
			out = append(out, sess)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return wrapStorage(s.kv.Delete(ctx, SessionKey(id)), nil)
}

// DeleteExpired removes sessions whose deadline has passed at now, along
// with records that no longer decode. Returns the number removed.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	keys, err := s.kv.ScanPrefix(ctx, SessionPrefix)
	if err != nil {
		return 0, wrapStorage(err, nil)
	}

	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		data, err := s.kv.Get(ctx, key)
		if errors.Is(err, storage.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return removed, wrapStorage(err, nil)
		}

		var sess domain.Session
		if err := decode(data, &sess); err != nil {
			s.opts.logger.Warn("deleting corrupt session record", "record", key, "error", err)
		} else if !sess.IsExpiredAt(now) {
			continue
		}

		if err := s.kv.Delete(ctx, key); err != nil {
			return removed, wrapStorage(err, nil)
		}
		removed++
	}
	return removed, nil
}
