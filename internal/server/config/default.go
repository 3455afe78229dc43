package config

import (
	"time"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/storage"
)

// Default configuration values.
const (
	DefaultHTTPAddr  = "127.0.0.1:3000"
	DefaultRedisAddr = "127.0.0.1:6380"

	DefaultStorageEngine = storage.EngineMemory
	DefaultDataDir       = "/var/lib/zumi-server/data"
	DefaultGCInterval    = 10 * time.Minute

	DefaultSnapshotInterval = 5 * time.Minute
	DefaultSnapshotRetain   = 3

	DefaultStorageRedisAddr = "127.0.0.1:6379"
	DefaultRedisPoolSize    = 10
	DefaultRedisTimeout     = 3 * time.Second

	DefaultRPCEndpoint    = "https://api.mainnet-beta.solana.com"
	DefaultNetwork        = "mainnet-beta"
	DefaultChainTimeout   = 10 * time.Second
	DefaultConfirmTimeout = 30 * time.Second

	DefaultSweepInterval = time.Minute
	DefaultWebhookTTL    = time.Hour
	DefaultRateLimit     = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     15 * time.Second,
				WriteTimeout:    60 * time.Second,
				ShutdownTimeout: 10 * time.Second,
			},
			Redis: RedisConfig{
				Enabled: false,
				Addr:    DefaultRedisAddr,
			},
		},
		Storage: StorageSection{
			Engine:  DefaultStorageEngine,
			DataDir: DefaultDataDir,
			Memory: MemoryStorage{
				SnapshotInterval: DefaultSnapshotInterval,
				SnapshotRetain:   DefaultSnapshotRetain,
			},
			Badger: BadgerStorage{
				GCInterval: DefaultGCInterval,
			},
			Redis: RedisStorageConfig{
				Addr:         DefaultStorageRedisAddr,
				PoolSize:     DefaultRedisPoolSize,
				DialTimeout:  DefaultRedisTimeout,
				ReadTimeout:  DefaultRedisTimeout,
				WriteTimeout: DefaultRedisTimeout,
			},
		},
		Session: SessionSection{TTL: domain.DefaultSessionTTL},
		Cache: CacheSection{
			BalanceTTL: domain.DefaultBalanceCacheTTL,
			WebhookTTL: DefaultWebhookTTL,
		},
		Proof: ProofSection{
			MaxAge: domain.DefaultProofMaxAge,
			Scheme: domain.ProofSchemeSHA256,
		},
		Chain: ChainSection{
			RPCEndpoint:    DefaultRPCEndpoint,
			Network:        DefaultNetwork,
			Timeout:        DefaultChainTimeout,
			ConfirmTimeout: DefaultConfirmTimeout,
		},
		Maintenance: MaintenanceSection{SweepInterval: DefaultSweepInterval},
		Security:    SecuritySection{RateLimit: DefaultRateLimit},
		Log: LogSection{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}
