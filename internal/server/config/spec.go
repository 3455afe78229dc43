package config

import "time"

// ServerConfig is the root configuration for zumi-server.
type ServerConfig struct {
	Server      ServerSection      `koanf:"server"`
	Storage     StorageSection     `koanf:"storage"`
	Session     SessionSection     `koanf:"session"`
	Cache       CacheSection       `koanf:"cache"`
	Proof       ProofSection       `koanf:"proof"`
	Chain       ChainSection       `koanf:"chain"`
	Maintenance MaintenanceSection `koanf:"maintenance"`
	Security    SecuritySection    `koanf:"security"`
	Log         LogSection         `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Redis RedisConfig `koanf:"redis"`
	Local LocalConfig `koanf:"local"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RedisConfig configures the RESP endpoint that exposes the store.
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
}

// LocalConfig configures the management Unix socket. An empty
// SocketPath disables it.
type LocalConfig struct {
	SocketPath string `koanf:"socket_path"`
}

// StorageSection selects and configures the key-value backend.
type StorageSection struct {
	// Engine is one of memory, badger, redis.
	Engine  string             `koanf:"engine"`
	DataDir string             `koanf:"data_dir"`
	Memory  MemoryStorage      `koanf:"memory"`
	Badger  BadgerStorage      `koanf:"badger"`
	Redis   RedisStorageConfig `koanf:"redis"`
}

// MemoryStorage configures snapshots of the memory engine. An empty
// SnapshotDir keeps the engine purely in memory.
type MemoryStorage struct {
	SnapshotDir      string        `koanf:"snapshot_dir"`
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`
	SnapshotRetain   int           `koanf:"snapshot_retain"`

	// SnapshotPassphrase encrypts snapshot files when set.
	SnapshotPassphrase string `koanf:"snapshot_passphrase"`
}

// BadgerStorage tunes the embedded backend.
type BadgerStorage struct {
	GCInterval time.Duration `koanf:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes"`
}

// RedisStorageConfig points the redis engine at a server.
type RedisStorageConfig struct {
	Addr         string        `koanf:"addr"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// SessionSection configures session lifetime.
type SessionSection struct {
	TTL time.Duration `koanf:"ttl"`
}

// CacheSection configures cached records.
type CacheSection struct {
	BalanceTTL time.Duration `koanf:"balance_ttl"`
	WebhookTTL time.Duration `koanf:"webhook_ttl"`
}

// ProofSection configures the proof generator. Proof records are kept
// for session.ttl.
type ProofSection struct {
	MaxAge time.Duration `koanf:"max_age"`
	Scheme string        `koanf:"scheme"`
}

// ChainSection configures the Solana RPC client.
type ChainSection struct {
	RPCEndpoint    string        `koanf:"rpc_endpoint"`
	Network        string        `koanf:"network"`
	Timeout        time.Duration `koanf:"timeout"`
	ConfirmTimeout time.Duration `koanf:"confirm_timeout"`

	// CAFile is an optional PEM bundle trusted in addition to system roots.
	CAFile string `koanf:"ca_file"`
}

// MaintenanceSection configures background jobs.
type MaintenanceSection struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// SecuritySection configures admin access and request limits.
type SecuritySection struct {
	// AdminKeyHashes are argon2id hashes of admin API keys.
	AdminKeyHashes []string `koanf:"admin_key_hashes"`

	// RateLimit is the per-client request rate per second (0 disables).
	RateLimit int `koanf:"rate_limit"`
}

// LogSection configures logging.
type LogSection struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}
