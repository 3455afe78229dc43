package main

import (
	"context"
	"errors"
	"time"

	"github.com/zumicash/zumi-go/internal/server/config"
	"github.com/zumicash/zumi-go/internal/storage/memory"
	"github.com/zumicash/zumi-go/internal/storage/snapshot"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
)

// snapshotter persists the memory engine across restarts.
type snapshotter struct {
	mgr      *snapshot.Manager
	kv       *memory.KV
	interval time.Duration
	logger   logger.Logger
}

func newSnapshotter(cfg *config.MemoryStorage, kv *memory.KV, log logger.Logger) (*snapshotter, error) {
	mgr, err := snapshot.NewManager(snapshot.Config{
		Dir:            cfg.SnapshotDir,
		RetentionCount: cfg.SnapshotRetain,
		Passphrase:     []byte(cfg.SnapshotPassphrase),
	})
	if err != nil {
		return nil, err
	}
	return &snapshotter{
		mgr:      mgr,
		kv:       kv,
		interval: cfg.SnapshotInterval,
		logger:   log.With("component", "snapshot"),
	}, nil
}

// restore loads the newest snapshot. A missing snapshot is a fresh start.
func (s *snapshotter) restore() error {
	info, n, err := s.mgr.Restore(s.kv)
	if errors.Is(err, snapshot.ErrNoSnapshots) {
		s.logger.Info("no snapshot to restore")
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("snapshot restored", "id", info.ID, "entries", n, "encrypted", info.Encrypted)
	return nil
}

func (s *snapshotter) save() error {
	start := time.Now()
	info, err := s.mgr.Create(s.kv)
	if err != nil {
		return err
	}
	s.logger.Info("snapshot written",
		"id", info.ID,
		"entries", info.EntryCount,
		"bytes", info.Size,
		"duration", time.Since(start).String(),
	)
	return nil
}

func (s *snapshotter) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.save(); err != nil {
				s.logger.Error("snapshot failed", "error", err)
			}
		}
	}
}
