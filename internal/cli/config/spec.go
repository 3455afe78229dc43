package config

import "time"

// CLIConfig is the zumi-cli configuration file.
type CLIConfig struct {
	// Server is the base URL of zumi-server.
	Server string `yaml:"server"`

	// APIKey is the admin API key sent with admin commands.
	APIKey string `yaml:"api_key,omitempty"`

	// Socket is the local management socket. When set, commands go over
	// it instead of Server.
	Socket string `yaml:"socket,omitempty"`

	// Output is table, json or yaml.
	Output string `yaml:"output"`

	Timeout time.Duration `yaml:"timeout"`
}

// Defaults.
const (
	DefaultServer  = "http://127.0.0.1:3000"
	DefaultOutput  = "table"
	DefaultTimeout = 30 * time.Second
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  DefaultServer,
		Output:  DefaultOutput,
		Timeout: DefaultTimeout,
	}
}
