package chain

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync/atomic"
	"time"

	"filippo.io/edwards25519"
	"github.com/go-resty/resty/v2"
	"github.com/mr-tron/base58"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/infra/tlsroots"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
)

// LamportsPerSOL converts the chain's integer unit to whole tokens.
const LamportsPerSOL = 1e9

// Config configures the Solana RPC client.
type Config struct {
	// Endpoint is the JSON-RPC URL.
	Endpoint string

	// Network is a display name such as "mainnet-beta" or "devnet".
	Network string

	// Timeout bounds each RPC round trip.
	// Default: 10s
	Timeout time.Duration

	// ConfirmTimeout bounds how long SubmitTransaction waits for confirmation.
	// Default: 30s
	ConfirmTimeout time.Duration

	// PollInterval is the delay between signature status polls.
	// Default: 500ms
	PollInterval time.Duration

	// CAFile adds a PEM bundle to the trusted roots for HTTPS endpoints.
	CAFile string
}

// DefaultConfig returns a mainnet-beta configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint:       "https://api.mainnet-beta.solana.com",
		Network:        "mainnet-beta",
		Timeout:        10 * time.Second,
		ConfirmTimeout: 30 * time.Second,
		PollInterval:   500 * time.Millisecond,
	}
}

// Client is a Solana JSON-RPC client.
type Client struct {
	cfg    Config
	http   *resty.Client
	logger logger.Logger
	nextID atomic.Uint64
}

// New creates a client for cfg.Endpoint.
func New(cfg Config, log logger.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("chain: endpoint is required")
	}
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = def.ConfirmTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if log == nil {
		log = logger.Default()
	}

	rc := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.CAFile != "" {
		tlsCfg, err := tlsroots.ClientTLSConfig(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("chain: %w", err)
		}
		rc.SetTLSClientConfig(tlsCfg)
	}

	return &Client{
		cfg:    cfg,
		http:   rc,
		logger: log.With("component", "chain"),
	}, nil
}

// ValidateAddress reports whether addr is a base58 ed25519 public key on
// the curve. Malformed input yields false.
func (c *Client) ValidateAddress(_ context.Context, addr string) bool {
	return IsValidAddress(addr)
}

// IsValidAddress is the offline address check used by ValidateAddress.
func IsValidAddress(addr string) bool {
	if addr == "" || len(addr) > 44 {
		return false
	}
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// GetBalance returns the confirmed balance of addr in whole tokens.
func (c *Client) GetBalance(ctx context.Context, addr string) (float64, error) {
	if !IsValidAddress(addr) {
		return 0, domain.ErrInvalidAddress.WithDetails(addr)
	}
	var res balanceResult
	if err := c.call(ctx, &res, "getBalance", addr, map[string]string{"commitment": domain.CommitmentConfirmed}); err != nil {
		return 0, err
	}
	return float64(res.Value) / LamportsPerSOL, nil
}

// SubmitTransaction sends a signed transaction and polls until it is
// confirmed or ConfirmTimeout elapses. A timeout is not an error: the
// signature is returned with confirmed=false.
func (c *Client) SubmitTransaction(ctx context.Context, signedTx []byte) (string, bool, error) {
	if len(signedTx) == 0 {
		return "", false, domain.ErrMissingArgument.WithDetails("signed transaction is empty")
	}

	var sig string
	err := c.call(ctx, &sig, "sendTransaction",
		base64.StdEncoding.EncodeToString(signedTx),
		map[string]any{
			"encoding":            "base64",
			"skipPreflight":       false,
			"preflightCommitment": domain.CommitmentConfirmed,
		})
	if err != nil {
		return "", false, err
	}
	c.logger.Debug("transaction sent", "signature", sig)

	confirmCtx, cancel := context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		status, err := c.GetTransactionStatus(confirmCtx, sig)
		switch {
		case err != nil && confirmCtx.Err() == nil:
			return sig, false, err
		case err == nil && status.Err != "":
			return sig, false, domain.ErrUpstreamFailure.WithDetails("transaction failed: " + status.Err)
		case err == nil && status.Confirmed():
			return sig, true, nil
		}

		select {
		case <-confirmCtx.Done():
			if ctx.Err() != nil {
				return sig, false, ctx.Err()
			}
			c.logger.Warn("transaction not confirmed in time", "signature", sig, "timeout", c.cfg.ConfirmTimeout)
			return sig, false, nil
		case <-ticker.C:
		}
	}
}

// GetTransactionStatus returns the status of sig. An unknown signature is
// reported with Found=false.
func (c *Client) GetTransactionStatus(ctx context.Context, sig string) (*domain.TxStatus, error) {
	if sig == "" {
		return nil, domain.ErrMissingArgument.WithDetails("signature is required")
	}
	var res signatureStatusesResult
	err := c.call(ctx, &res, "getSignatureStatuses",
		[]string{sig},
		map[string]bool{"searchTransactionHistory": true})
	if err != nil {
		return nil, err
	}

	st := &domain.TxStatus{Signature: sig}
	if len(res.Value) == 0 || res.Value[0] == nil {
		return st, nil
	}
	v := res.Value[0]
	st.Found = true
	st.Slot = v.Slot
	st.Confirmations = v.Confirmations
	st.ConfirmationStatus = v.ConfirmationStatus
	if len(v.Err) > 0 && string(v.Err) != "null" {
		st.Err = string(v.Err)
	}
	return st, nil
}

// CreateShieldedAddress returns a fresh random ed25519 public key in base58.
// The owner is not bound into the key.
func (c *Client) CreateShieldedAddress(_ context.Context, _ string) (string, error) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", domain.ErrInternalServer.WithCause(err)
	}
	return base58.Encode(pub), nil
}

// NetworkInfo returns the configured cluster.
func (c *Client) NetworkInfo() domain.NetworkInfo {
	return domain.NetworkInfo{Network: c.cfg.Network, Endpoint: c.cfg.Endpoint}
}

// Ping checks the node answers getHealth.
func (c *Client) Ping(ctx context.Context) error {
	var health string
	return c.call(ctx, &health, "getHealth")
}
