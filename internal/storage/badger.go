// Package storage provides Badger-based KV storage implementation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zumicash/zumi-go/internal/telemetry/logger"
)

// maxIncrementRetries bounds optimistic retries of Increment under contention.
const maxIncrementRetries = 16

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM (tests, ephemeral deployments).
	InMemory bool

	// GCInterval is the interval between value-log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCDiscardRatio is the value-log GC discard ratio (0.0-1.0).
	// Default: 0.5
	GCDiscardRatio float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// SyncWrites fsyncs after each write.
	SyncWrites bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:            dir,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
		CacheSize:      64 << 20,
	}
}

// BadgerKV implements KV on Badger v3 using native entry TTLs.
type BadgerKV struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	stopCh chan struct{}
	doneCh chan struct{}
	closed atomic.Bool
}

var _ KV = (*BadgerKV)(nil)

// NewBadgerKV opens a Badger database.
func NewBadgerKV(cfg BadgerConfig, log logger.Logger) (*BadgerKV, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts.Logger = &badgerLogger{logger: log.With("component", "badger")}
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	kv := &BadgerKV{
		db:     db,
		cfg:    cfg,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	// Value-log GC is not supported in memory mode.
	if cfg.InMemory {
		close(kv.doneCh)
	} else {
		go kv.gcLoop()
	}

	log.Info("badger kv started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return kv, nil
}

// Put stores a key-value pair with an optional TTL.
func (b *BadgerKV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Get retrieves a value by key.
func (b *BadgerKV) Get(_ context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes a key.
func (b *BadgerKV) Delete(_ context.Context, key string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// ScanPrefix lists live keys under prefix. Badger hides expired entries.
func (b *BadgerKV) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Increment performs a read-modify-write inside a transaction and retries
// on Badger's conflict detection.
func (b *BadgerKV) Increment(_ context.Context, key string) (int64, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}

	var next int64
	for attempt := 0; attempt < maxIncrementRetries; attempt++ {
		err := b.db.Update(func(txn *badger.Txn) error {
			var cur int64
			var expiresAt uint64

			item, err := txn.Get([]byte(key))
			switch {
			case err == nil:
				raw, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				cur, err = strconv.ParseInt(string(raw), 10, 64)
				if err != nil {
					return ErrNotInteger
				}
				expiresAt = item.ExpiresAt()
			case errors.Is(err, badger.ErrKeyNotFound):
			default:
				return err
			}

			next = cur + 1
			e := badger.NewEntry([]byte(key), []byte(strconv.FormatInt(next, 10)))
			e.ExpiresAt = expiresAt
			return txn.SetEntry(e)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return next, nil
	}
	return 0, fmt.Errorf("badger: increment %s: %w", key, badger.ErrConflict)
}

// Ping reports whether the database is open.
func (b *BadgerKV) Ping(_ context.Context) error {
	if b.closed.Load() || b.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// RunGC runs value-log GC until Badger reports nothing left to rewrite.
// Returns the number of files rewritten.
func (b *BadgerKV) RunGC() (int, error) {
	if b.cfg.InMemory {
		return 0, nil
	}
	ratio := b.cfg.GCDiscardRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}

	rewritten := 0
	for {
		err := b.db.RunValueLogGC(ratio)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return rewritten, fmt.Errorf("badger gc: %w", err)
		}
		rewritten++
	}

	b.lastGCTime.Store(time.Now().UnixMilli())
	b.gcRuns.Add(1)
	return rewritten, nil
}

// Close gracefully shuts down the Badger database.
func (b *BadgerKV) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !b.cfg.InMemory {
		close(b.stopCh)
	}
	<-b.doneCh

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("badger: close db: %w", err)
	}
	b.logger.Info("badger kv closed")
	return nil
}

// RegisterMetrics exposes Badger size and GC gauges on reg.
func (b *BadgerKV) RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "zumi",
			Subsystem: "badger",
			Name:      "lsm_size_bytes",
			Help:      "Badger LSM tree size in bytes",
		}, func() float64 {
			lsm, _ := b.db.Size()
			return float64(lsm)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "zumi",
			Subsystem: "badger",
			Name:      "value_log_size_bytes",
			Help:      "Badger value log size in bytes",
		}, func() float64 {
			_, vlog := b.db.Size()
			return float64(vlog)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "zumi",
			Subsystem: "badger",
			Name:      "last_gc_timestamp_seconds",
			Help:      "Unix timestamp of the last value-log GC run",
		}, func() float64 {
			return float64(b.lastGCTime.Load()) / 1000.0
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "zumi",
			Subsystem: "badger",
			Name:      "gc_runs_total",
			Help:      "Completed value-log GC runs",
		}, func() float64 {
			return float64(b.gcRuns.Load())
		}),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// gcLoop runs periodic value-log GC.
func (b *BadgerKV) gcLoop() {
	defer close(b.doneCh)

	interval := b.cfg.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := b.RunGC(); err != nil {
				b.logger.Error("badger gc failed", "error", err)
			} else if n > 0 {
				b.logger.Debug("badger gc completed", "rewritten", n)
			}
		case <-b.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
