package command

import (
	"sort"
	"strconv"
	"time"

	"github.com/zumicash/zumi-go/internal/cli/output"
)

// Result shapes mirror the server's JSON.

type createResult struct {
	Success         bool    `json:"success"`
	SessionID       string  `json:"sessionId"`
	ShieldedAddress string  `json:"shieldedAddress,omitempty"`
	Amount          float64 `json:"amount"`
	Proof           struct {
		Hash       string `json:"hash"`
		Commitment string `json:"commitment"`
	} `json:"proof"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (r *createResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("session", r.SessionID)
	t.AddRow("status", r.Status)
	t.AddRow("amount", formatAmount(r.Amount))
	t.AddRow("proof", r.Proof.Hash)
	t.AddRow("commitment", r.Proof.Commitment)
	if r.ShieldedAddress != "" {
		t.AddRow("shielded address", r.ShieldedAddress)
	}
	t.AddRow("expires in", (time.Duration(r.ExpiresIn) * time.Second).String())
	t.AddRow("message", r.Message)
	return t
}

type sessionView struct {
	SessionID       string  `json:"sessionId"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	OwnerAddress    string  `json:"ownerAddress"`
	Amount          float64 `json:"amount"`
	TokenMint       string  `json:"tokenMint,omitempty"`
	ProofHash       string  `json:"proofHash,omitempty"`
	TxSignature     string  `json:"txSignature,omitempty"`
	ShieldedAddress string  `json:"shieldedAddress,omitempty"`
	CreatedAt       int64   `json:"createdAt"`
	UpdatedAt       int64   `json:"updatedAt"`
	ExpiresAt       int64   `json:"expiresAt"`
	Version         uint64  `json:"version"`
}

type sessionResult struct {
	Success bool        `json:"success"`
	Session sessionView `json:"session"`
}

func (r *sessionResult) Table() *output.Table {
	s := r.Session
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("session", s.SessionID)
	t.AddRow("type", s.Type)
	t.AddRow("status", s.Status)
	t.AddRow("owner", s.OwnerAddress)
	t.AddRow("amount", formatAmount(s.Amount))
	t.AddRow("token mint", dash(s.TokenMint))
	t.AddRow("proof", dash(s.ProofHash))
	t.AddRow("tx signature", dash(s.TxSignature))
	t.AddRow("created", formatMillis(s.CreatedAt))
	t.AddRow("updated", formatMillis(s.UpdatedAt))
	t.AddRow("expires", formatMillis(s.ExpiresAt))
	t.AddRow("version", strconv.FormatUint(s.Version, 10))
	return t
}

type sessionListResult struct {
	Success  bool          `json:"success"`
	Sessions []sessionView `json:"sessions"`
	Total    int           `json:"total"`
}

func (r *sessionListResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"SESSION", "TYPE", "STATUS", "AMOUNT", "CREATED", "EXPIRES"}}
	for _, s := range r.Sessions {
		t.AddRow(s.SessionID, s.Type, s.Status, formatAmount(s.Amount), formatMillis(s.CreatedAt), formatMillis(s.ExpiresAt))
	}
	return t
}

type proofRecord struct {
	ProofHash  string `json:"proofHash"`
	Commitment string `json:"commitment"`
	Nullifier  string `json:"nullifier"`
	Timestamp  int64  `json:"timestamp"`
	Scheme     string `json:"scheme,omitempty"`
}

type proofResult struct {
	Success bool         `json:"success"`
	Proof   *proofRecord `json:"proof"`
}

func (r *proofResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	if p := r.Proof; p != nil {
		t.AddRow("hash", p.ProofHash)
		t.AddRow("commitment", p.Commitment)
		t.AddRow("nullifier", p.Nullifier)
		t.AddRow("scheme", dash(p.Scheme))
		t.AddRow("created", formatMillis(p.Timestamp))
	}
	return t
}

type verifyResult struct {
	Success   bool   `json:"success"`
	ProofHash string `json:"proofHash"`
	Valid     bool   `json:"valid"`
}

func (r *verifyResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"PROOF", "VALID"}}
	t.AddRow(r.ProofHash, strconv.FormatBool(r.Valid))
	return t
}

type batchVerifyResult struct {
	Success bool            `json:"success"`
	Results map[string]bool `json:"results"`
}

func (r *batchVerifyResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"PROOF", "VALID"}}
	hashes := make([]string, 0, len(r.Results))
	for h := range r.Results {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	for _, h := range hashes {
		t.AddRow(h, strconv.FormatBool(r.Results[h]))
	}
	return t
}

type balanceResult struct {
	Success         bool    `json:"success"`
	Address         string  `json:"address"`
	PublicBalance   float64 `json:"publicBalance"`
	ShieldedBalance float64 `json:"shieldedBalance"`
	Timestamp       int64   `json:"timestamp"`
	Cached          bool    `json:"cached"`
}

func (r *balanceResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"ADDRESS", "PUBLIC", "SHIELDED", "CACHED", "AS OF"}}
	t.AddRow(r.Address, formatAmount(r.PublicBalance), formatAmount(r.ShieldedBalance),
		strconv.FormatBool(r.Cached), formatMillis(r.Timestamp))
	return t
}

type statsResult struct {
	Success  bool             `json:"success"`
	Counters map[string]int64 `json:"counters"`
}

func (r *statsResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"COUNTER", "VALUE"}}
	names := make([]string, 0, len(r.Counters))
	for n := range r.Counters {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		t.AddRow(n, strconv.FormatInt(r.Counters[n], 10))
	}
	return t
}

type sweepResult struct {
	Success      bool   `json:"success"`
	CleanedCount int    `json:"cleaned_count"`
	TriggeredAt  string `json:"triggered_at"`
}

func (r *sweepResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"CLEANED", "TRIGGERED AT"}}
	t.AddRow(strconv.Itoa(r.CleanedCount), r.TriggeredAt)
	return t
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05Z")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type metadataResult struct {
	Success  bool `json:"success"`
	Metadata *struct {
		ProofHash string `json:"proofHash"`
		AgeMillis int64  `json:"ageMs"`
		Valid     bool   `json:"valid"`
	} `json:"metadata"`
}

func (r *metadataResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"PROOF", "AGE", "VALID"}}
	if m := r.Metadata; m != nil {
		t.AddRow(m.ProofHash, (time.Duration(m.AgeMillis) * time.Millisecond).String(), strconv.FormatBool(m.Valid))
	}
	return t
}

type syncResult struct {
	Success bool        `json:"success"`
	Session sessionView `json:"session"`
	Chain   *struct {
		Signature          string `json:"signature"`
		Found              bool   `json:"found"`
		Slot               uint64 `json:"slot,omitempty"`
		ConfirmationStatus string `json:"confirmationStatus,omitempty"`
		Err                string `json:"err,omitempty"`
	} `json:"chain,omitempty"`
}

func (r *syncResult) Table() *output.Table {
	t := (&sessionResult{Session: r.Session}).Table()
	if c := r.Chain; c != nil {
		t.AddRow("chain found", strconv.FormatBool(c.Found))
		t.AddRow("chain status", dash(c.ConfirmationStatus))
		t.AddRow("chain slot", strconv.FormatUint(c.Slot, 10))
		if c.Err != "" {
			t.AddRow("chain error", c.Err)
		}
	}
	return t
}

type statusResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Build   struct {
		Version   string `json:"version"`
		Commit    string `json:"commit"`
		GoVersion string `json:"go_version"`
	} `json:"build"`
	Engine  string `json:"engine"`
	Network *struct {
		Network  string `json:"network"`
		Endpoint string `json:"endpoint"`
	} `json:"network,omitempty"`
	StoreOK   bool `json:"store_ok"`
	LastSweep *struct {
		Deleted  int       `json:"deleted"`
		Started  time.Time `json:"started"`
		Duration string    `json:"duration"`
	} `json:"last_sweep,omitempty"`
	Time string `json:"time"`
}

func (r *statusResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("status", r.Status)
	t.AddRow("version", dash(r.Build.Version))
	t.AddRow("commit", dash(r.Build.Commit))
	t.AddRow("engine", r.Engine)
	t.AddRow("store ok", strconv.FormatBool(r.StoreOK))
	if n := r.Network; n != nil {
		t.AddRow("network", n.Network)
		t.AddRow("rpc endpoint", n.Endpoint)
	}
	if s := r.LastSweep; s != nil {
		t.AddRow("last sweep deleted", strconv.Itoa(s.Deleted))
		t.AddRow("last sweep at", s.Started.UTC().Format(time.RFC3339))
		t.AddRow("last sweep took", s.Duration)
	}
	t.AddRow("time", r.Time)
	return t
}
