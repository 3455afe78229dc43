package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyStorage(&cfg.Storage)...)
	errs = append(errs, verifyLifetimes(cfg)...)
	errs = append(errs, verifyChain(&cfg.Chain)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	if cfg.Security.RateLimit < 0 {
		errs = append(errs, errors.New("security.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}
	if cfg.Redis.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Redis.Addr); err != nil {
			errs = append(errs, fmt.Errorf("server.redis.addr: %w", err))
		} else if cfg.Redis.Addr == cfg.HTTP.Addr {
			errs = append(errs, errors.New("server.redis.addr conflicts with server.http.addr"))
		}
	}
	if p := cfg.Local.SocketPath; p != "" {
		if len(p) > 100 {
			errs = append(errs, errors.New("server.local.socket_path is too long for a unix socket"))
		}
		if fi, err := os.Stat(filepath.Dir(p)); err != nil || !fi.IsDir() {
			errs = append(errs, fmt.Errorf("server.local.socket_path: directory %s does not exist", filepath.Dir(p)))
		}
	}
	return errs
}

func verifyStorage(cfg *StorageSection) []error {
	switch cfg.Engine {
	case storage.EngineMemory:
		return verifyMemory(&cfg.Memory)
	case storage.EngineBadger:
		if cfg.DataDir == "" {
			return []error{errors.New("storage.data_dir is required for the badger engine")}
		}
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return []error{fmt.Errorf("cannot create data directory: %w", err)}
		}
		return nil
	case storage.EngineRedis:
		if cfg.Redis.Addr == "" {
			return []error{errors.New("storage.redis.addr is required for the redis engine")}
		}
		if cfg.Redis.DB < 0 {
			return []error{errors.New("storage.redis.db must not be negative")}
		}
		return nil
	default:
		return []error{fmt.Errorf("storage.engine %q is not one of memory, badger, redis", cfg.Engine)}
	}
}

func verifyMemory(cfg *MemoryStorage) []error {
	if cfg.SnapshotDir == "" {
		return nil
	}
	var errs []error
	if cfg.SnapshotInterval <= 0 {
		errs = append(errs, errors.New("storage.memory.snapshot_interval must be positive"))
	}
	if cfg.SnapshotRetain < 1 {
		errs = append(errs, errors.New("storage.memory.snapshot_retain must be at least 1"))
	}
	if n := len(cfg.SnapshotPassphrase); n > 0 && n < 8 {
		errs = append(errs, errors.New("storage.memory.snapshot_passphrase must be at least 8 characters"))
	}
	if err := os.MkdirAll(cfg.SnapshotDir, 0750); err != nil {
		errs = append(errs, fmt.Errorf("cannot create snapshot directory: %w", err))
	}
	return errs
}

func verifyLifetimes(cfg *ServerConfig) []error {
	var errs []error
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"session.ttl", cfg.Session.TTL},
		{"cache.balance_ttl", cfg.Cache.BalanceTTL},
		{"proof.max_age", cfg.Proof.MaxAge},
		{"maintenance.sweep_interval", cfg.Maintenance.SweepInterval},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", d.name))
		}
	}
	if cfg.Proof.Scheme != domain.ProofSchemeSHA256 && cfg.Proof.Scheme != domain.ProofSchemeMiMC {
		errs = append(errs, fmt.Errorf("proof.scheme %q is not one of sha256, mimc", cfg.Proof.Scheme))
	}
	return errs
}

func verifyChain(cfg *ChainSection) []error {
	u, err := url.Parse(cfg.RPCEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []error{fmt.Errorf("chain.rpc_endpoint %q must be an http(s) URL", cfg.RPCEndpoint)}
	}
	if cfg.CAFile != "" {
		if _, err := os.Stat(cfg.CAFile); err != nil {
			return []error{fmt.Errorf("chain.ca_file: %w", err)}
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) []error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
	default:
		return []error{fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)}
	}
	switch cfg.Format {
	case "json", "text", "console":
	default:
		return []error{fmt.Errorf("log.format %q is not one of json, text", cfg.Format)}
	}
	return nil
}
