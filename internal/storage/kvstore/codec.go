package kvstore

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
)

// Key namespaces.
const (
	SessionPrefix = "session:"
	ProofPrefix   = "proof:"
	BalancePrefix = "balance:"
	CounterPrefix = "counter:"
	WebhookPrefix = "webhook:"
)

func SessionKey(id string) string      { return SessionPrefix + id }
func ProofKey(hash string) string      { return ProofPrefix + hash }
func BalanceKey(address string) string { return BalancePrefix + address }
func CounterKey(name string) string    { return CounterPrefix + name }
func WebhookKey(id string) string      { return WebhookPrefix + id }

type record interface {
	Validate() error
}

// encode validates v and marshals it.
func encode(v record) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, domain.ErrInternalServer.WithCause(err)
	}
	return data, nil
}

// decode unmarshals and validates a stored record.
func decode(data []byte, v record) error {
	if err := json.Unmarshal(data, v); err != nil {
		return domain.ErrCorruptRecord.WithCause(err)
	}
	if err := v.Validate(); err != nil {
		return domain.ErrCorruptRecord.WithCause(err)
	}
	return nil
}

// wrapStorage maps backend failures to ErrStorageFailure. notFound replaces
// storage.ErrKeyNotFound when non-nil.
func wrapStorage(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrKeyNotFound) && notFound != nil {
		return notFound
	}
	return domain.ErrStorageFailure.WithCause(err)
}

// Option configures a store.
type Option func(*options)

type options struct {
	now    func() time.Time
	ttl    time.Duration
	logger logger.Logger
}

func newOptions(defaultTTL time.Duration, opts []Option) options {
	o := options{now: time.Now, ttl: defaultTTL, logger: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTTL overrides the retention of records that use a fixed TTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
