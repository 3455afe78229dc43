package main

import (
	"context"
	"fmt"
	"time"

	"github.com/zumicash/zumi-go/internal/chain"
	"github.com/zumicash/zumi-go/internal/core/service"
	"github.com/zumicash/zumi-go/internal/infra/shutdown"
	"github.com/zumicash/zumi-go/internal/proof"
	"github.com/zumicash/zumi-go/internal/server/config"
	"github.com/zumicash/zumi-go/internal/server/httpserver"
	"github.com/zumicash/zumi-go/internal/server/httpserver/handler"
	"github.com/zumicash/zumi-go/internal/server/localserver"
	"github.com/zumicash/zumi-go/internal/server/redisserver"
	"github.com/zumicash/zumi-go/internal/storage"
	"github.com/zumicash/zumi-go/internal/storage/kvstore"
	"github.com/zumicash/zumi-go/internal/storage/memory"
	"github.com/zumicash/zumi-go/internal/storage/rediskv"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
	"github.com/zumicash/zumi-go/internal/telemetry/metric"
)

const limiterPruneInterval = time.Minute

// app owns every long-lived component of one server process.
type app struct {
	cfg    *config.ServerConfig
	logger logger.Logger

	kv       storage.KV
	metrics  *metric.Registry
	sweeper  *service.Sweeper
	limiters *service.RateLimiterRegistry
	snap     *snapshotter

	http  *httpserver.Server
	resp  *redisserver.Server
	local *localserver.Server
}

func newApp(ctx context.Context, cfg *config.ServerConfig, log logger.Logger) (*app, error) {
	metrics := metric.NewRegistry()

	kv, err := openStore(ctx, &cfg.Storage, metrics, log)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Engine, err)
	}
	var snap *snapshotter
	if mem, ok := kv.(*memory.KV); ok && cfg.Storage.Memory.SnapshotDir != "" {
		if snap, err = newSnapshotter(&cfg.Storage.Memory, mem, log); err == nil {
			err = snap.restore()
		}
		if err != nil {
			kv.Close()
			return nil, fmt.Errorf("memory snapshot: %w", err)
		}
	}

	a, err := wire(cfg, kv, metrics, log)
	if err != nil {
		kv.Close()
		return nil, err
	}
	a.snap = snap
	return a, nil
}

func openStore(ctx context.Context, cfg *config.StorageSection, metrics *metric.Registry, log logger.Logger) (storage.KV, error) {
	switch cfg.Engine {
	case storage.EngineMemory:
		return memory.New(), nil
	case storage.EngineBadger:
		bc := storage.DefaultBadgerConfig(cfg.DataDir)
		if cfg.Badger.GCInterval > 0 {
			bc.GCInterval = cfg.Badger.GCInterval
		}
		bc.SyncWrites = cfg.Badger.SyncWrites
		kv, err := storage.NewBadgerKV(bc, log)
		if err != nil {
			return nil, err
		}
		if err := kv.RegisterMetrics(metrics.Registerer()); err != nil {
			kv.Close()
			return nil, err
		}
		return kv, nil
	case storage.EngineRedis:
		return rediskv.New(ctx, rediskv.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Engine)
	}
}

// wire builds stores, services and servers on top of an open store.
func wire(cfg *config.ServerConfig, kv storage.KV, metrics *metric.Registry, log logger.Logger) (*app, error) {
	storeLog := kvstore.WithLogger(log.With("component", "kvstore"))
	sessions := kvstore.NewSessionStore(kv, storeLog)
	proofs := kvstore.NewProofStore(kv, kvstore.WithTTL(cfg.Session.TTL), storeLog)
	balances := kvstore.NewBalanceCache(kv, kvstore.WithTTL(cfg.Cache.BalanceTTL), storeLog)
	counters := kvstore.NewCounterRegistry(kv)
	webhooks := kvstore.NewWebhookStore(kv, kvstore.WithTTL(cfg.Cache.WebhookTTL), storeLog)

	if err := metrics.Registerer().Register(metric.NewCollector(counters, service.CounterNames())); err != nil {
		return nil, fmt.Errorf("register counter collector: %w", err)
	}

	chainClient, err := chain.New(chain.Config{
		Endpoint:       cfg.Chain.RPCEndpoint,
		Network:        cfg.Chain.Network,
		Timeout:        cfg.Chain.Timeout,
		ConfirmTimeout: cfg.Chain.ConfirmTimeout,
		CAFile:         cfg.Chain.CAFile,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("chain client: %w", err)
	}

	prover, err := proof.New(cfg.Proof.Scheme, proof.WithMaxAge(cfg.Proof.MaxAge))
	if err != nil {
		return nil, fmt.Errorf("proof generator: %w", err)
	}

	privacy := service.NewPrivacyService(service.PrivacyDeps{
		Sessions: sessions,
		Proofs:   proofs,
		Counters: counters,
		Webhooks: webhooks,
		Chain:    chainClient,
		Prover:   prover,
		Metrics:  metrics,
		Logger:   log,
	}, service.PrivacyConfig{
		SessionTTL: cfg.Session.TTL,
		WebhookTTL: cfg.Cache.WebhookTTL,
	})
	sweeper := service.NewSweeper(sessions, cfg.Maintenance.SweepInterval, metrics, log)

	h := handler.New(handler.Deps{
		Privacy: privacy,
		Balance: service.NewBalanceService(balances, sessions, chainClient, metrics, log),
		Proofs:  service.NewProofService(proofs, prover, metrics),
		Sweeper: sweeper,
		Store:   kv,
		Network: chainClient,
		Engine:  cfg.Storage.Engine,
		Logger:  log,
	})

	a := &app{
		cfg:      cfg,
		logger:   log,
		kv:       kv,
		metrics:  metrics,
		sweeper:  sweeper,
		limiters: service.NewRateLimiterRegistry(cfg.Security.RateLimit),
	}

	routes := &httpserver.RouterConfig{
		Handler:  h,
		Admin:    service.NewAdminAuthenticator(service.AdminAuthConfig{KeyHashes: cfg.Security.AdminKeyHashes}),
		Limiters: a.limiters,
		Metrics:  metrics,
		Logger:   log,
	}
	a.http, err = httpserver.New(httpserver.Config{
		Addr:         cfg.Server.HTTP.Addr,
		TLSCertFile:  cfg.Server.HTTP.TLSCertFile,
		TLSKeyFile:   cfg.Server.HTTP.TLSKeyFile,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}, httpserver.NewRouter(routes), log)
	if err != nil {
		return nil, fmt.Errorf("http server: %w", err)
	}

	if cfg.Server.Redis.Enabled {
		rc := redisserver.DefaultConfig()
		rc.Address = cfg.Server.Redis.Addr
		rc.Password = cfg.Server.Redis.Password
		a.resp = redisserver.New(rc, kv, log)
	}
	if p := cfg.Server.Local.SocketPath; p != "" {
		a.local = localserver.New(p, httpserver.NewLocalRouter(routes), log)
	}
	return a, nil
}

// start binds every listener, launches background loops and registers
// their shutdown hooks. Hooks run in reverse, so the final snapshot is
// taken after the listeners stop and the store closes last.
func (a *app) start(ctx context.Context, sd *shutdown.Handler) error {
	sd.OnShutdown("store", func(context.Context) error {
		return a.kv.Close()
	})
	if a.snap != nil {
		sd.OnShutdown("snapshot", func(context.Context) error {
			return a.snap.save()
		})
	}

	bg, cancel := context.WithCancel(ctx)
	sd.OnShutdown("background", func(context.Context) error {
		cancel()
		return nil
	})
	go a.sweeper.Run(bg)
	go a.pruneLimiters(bg)
	if a.snap != nil {
		go a.snap.run(bg)
	}

	if a.resp != nil {
		if err := a.resp.Start(bg); err != nil {
			return err
		}
		sd.OnShutdown("redis", a.resp.Shutdown)
	}

	if a.local != nil {
		if err := a.local.Listen(); err != nil {
			return fmt.Errorf("local socket: %w", err)
		}
		sd.OnShutdown("local", a.local.Shutdown)
		go func() {
			if err := a.local.Serve(); err != nil {
				a.logger.Error("local socket stopped", "error", err)
				sd.Trigger()
			}
		}()
	}

	if err := a.http.Listen(); err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	sd.OnShutdown("http", a.http.Shutdown)
	go func() {
		if err := a.http.Serve(); err != nil {
			a.logger.Error("http server stopped", "error", err)
			sd.Trigger()
		}
	}()
	return nil
}

func (a *app) pruneLimiters(ctx context.Context) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiters.Prune(); n > 0 {
				a.logger.Debug("pruned idle rate limiters", "count", n)
			}
		}
	}
}
