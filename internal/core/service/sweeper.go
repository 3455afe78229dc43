package service

import (
	"context"
	"sync"
	"time"

	"github.com/zumicash/zumi-go/internal/telemetry/logger"
	"github.com/zumicash/zumi-go/internal/telemetry/metric"
)

// DefaultSweepInterval is the period of Sweeper.Run.
const DefaultSweepInterval = time.Minute

// ExpiredSessionDeleter removes sessions whose deadline has passed.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// SweepResult describes one sweep.
type SweepResult struct {
	Deleted  int       `json:"deleted"`
	Started  time.Time `json:"started"`
	Duration string    `json:"duration"`
}

// Sweeper deletes logically expired sessions. It is the authority for
// expiry; store-native TTLs only back it up.
type Sweeper struct {
	sessions ExpiredSessionDeleter
	interval time.Duration
	metrics  *metric.Registry
	logger   logger.Logger
	now      func() time.Time

	mu   sync.Mutex
	last *SweepResult
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepClock overrides the time the sweeper compares deadlines against.
func WithSweepClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

// NewSweeper creates a Sweeper. interval <= 0 uses DefaultSweepInterval.
func NewSweeper(sessions ExpiredSessionDeleter, interval time.Duration, m *metric.Registry, log logger.Logger, opts ...SweeperOption) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if m == nil {
		m = metric.NewRegistry()
	}
	if log == nil {
		log = logger.Default()
	}
	s := &Sweeper{
		sessions: sessions,
		interval: interval,
		metrics:  m,
		logger:   log.With("component", "sweeper"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SweepExpiredSessions runs one sweep and returns the number of sessions
// deleted. Concurrent and repeated calls are safe.
func (s *Sweeper) SweepExpiredSessions(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	elapsed := time.Since(start)
	s.metrics.SweepDuration.Observe(elapsed.Seconds())

	if err != nil {
		s.metrics.SweepErrors.Inc()
		s.logger.Error("sweep failed", "deleted", n, "error", err)
		return n, err
	}

	s.metrics.SweepRuns.Inc()
	s.metrics.SessionsSwept.Add(float64(n))
	if n > 0 {
		s.logger.Info("expired sessions swept", "deleted", n, "duration", elapsed)
	}

	s.mu.Lock()
	s.last = &SweepResult{Deleted: n, Started: start, Duration: elapsed.String()}
	s.mu.Unlock()
	return n, nil
}

// LastResult returns the last successful sweep, or nil.
func (s *Sweeper) LastResult() *SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			_, _ = s.SweepExpiredSessions(ctx)
		}
	}
}
