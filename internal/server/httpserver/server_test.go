package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/core/service"
	"github.com/zumicash/zumi-go/internal/proof"
	"github.com/zumicash/zumi-go/internal/server/httpserver/handler"
	"github.com/zumicash/zumi-go/internal/storage/kvstore"
	"github.com/zumicash/zumi-go/internal/storage/memory"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
	"github.com/zumicash/zumi-go/internal/telemetry/metric"
)

const (
	ownerA = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	ownerB = "So11111111111111111111111111111111111111112"
)

type stubChain struct {
	mu        sync.Mutex
	valid     map[string]bool
	balances  map[string]float64
	submitSig string
	confirmed bool
	submitErr error
}

func (c *stubChain) ValidateAddress(_ context.Context, addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid[addr]
}

func (c *stubChain) GetBalance(_ context.Context, addr string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[addr], nil
}

func (c *stubChain) SubmitTransaction(context.Context, []byte) (string, bool, error) {
	return c.submitSig, c.confirmed, c.submitErr
}

func (c *stubChain) GetTransactionStatus(_ context.Context, sig string) (*domain.TxStatus, error) {
	return &domain.TxStatus{Signature: sig, Found: true, ConfirmationStatus: domain.CommitmentFinalized}, nil
}

func (c *stubChain) CreateShieldedAddress(context.Context, string) (string, error) {
	return "ShieldedAddr1111111111111111111111111111111", nil
}

func (c *stubChain) NetworkInfo() domain.NetworkInfo {
	return domain.NetworkInfo{Network: "devnet", Endpoint: "http://chain.invalid"}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

type testServer struct {
	engine   *gin.Engine
	kv       *memory.KV
	chain    *stubChain
	adminKey string
	metrics  *metric.Registry
}

func newTestServer(t *testing.T, opts ...func(*RouterConfig, *handler.Deps)) *testServer {
	t.Helper()

	kv := memory.New()
	t.Cleanup(func() { _ = kv.Close() })

	chain := &stubChain{
		valid:    map[string]bool{ownerA: true, ownerB: true},
		balances: map[string]float64{ownerA: 2.5},
	}
	gen, err := proof.New(domain.ProofSchemeSHA256)
	if err != nil {
		t.Fatalf("proof.New: %v", err)
	}
	m := metric.NewRegistry()
	log := logger.Nop()

	sessions := kvstore.NewSessionStore(kv, kvstore.WithLogger(log))
	proofs := kvstore.NewProofStore(kv)

	privacy := service.NewPrivacyService(service.PrivacyDeps{
		Sessions: sessions,
		Proofs:   proofs,
		Counters: kvstore.NewCounterRegistry(kv),
		Webhooks: kvstore.NewWebhookStore(kv),
		Chain:    chain,
		Prover:   gen,
		Metrics:  m,
		Logger:   log,
	}, service.PrivacyConfig{})

	key, hash, err := service.GenerateAdminKey()
	if err != nil {
		t.Fatalf("GenerateAdminKey: %v", err)
	}

	deps := handler.Deps{
		Privacy: privacy,
		Balance: service.NewBalanceService(kvstore.NewBalanceCache(kv), sessions, chain, m, log),
		Proofs:  service.NewProofService(proofs, gen, m),
		Sweeper: service.NewSweeper(sessions, time.Minute, m, log),
		Store:   kv,
		Network: chain,
		Engine:  "memory",
		Logger:  log,
	}
	cfg := &RouterConfig{
		Admin:    service.NewAdminAuthenticator(service.AdminAuthConfig{KeyHashes: []string{hash}}),
		Limiters: service.NewRateLimiterRegistry(1000),
		Metrics:  m,
		Logger:   log,
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}
	cfg.Handler = handler.New(deps)

	return &testServer{engine: NewRouter(cfg), kv: kv, chain: chain, adminKey: key, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("Unmarshal %s: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func (s *testServer) create(t *testing.T, op, owner string, amount float64) map[string]any {
	t.Helper()
	w, body := s.do(t, http.MethodPost, "/api/privacy/"+op, map[string]any{"ownerAddress": owner, "amount": amount})
	if w.Code != http.StatusOK {
		t.Fatalf("create %s: status %d body %s", op, w.Code, w.Body.String())
	}
	return body
}

func counter(t *testing.T, s *testServer, name string) float64 {
	t.Helper()
	w, body := s.do(t, http.MethodGet, "/api/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d", w.Code)
	}
	counters := body["counters"].(map[string]any)
	v, _ := counters[name].(float64)
	return v
}

func TestRouter_ShieldEndToEnd(t *testing.T) {
	s := newTestServer(t)

	if got := counter(t, s, "total_shields"); got != 0 {
		t.Fatalf("total_shields before = %v, want 0", got)
	}

	created := s.create(t, "shield", ownerA, 10)
	if created["success"] != true || created["status"] != "pending" {
		t.Errorf("create body = %v", created)
	}
	if created["expiresIn"] != float64(3600) {
		t.Errorf("expiresIn = %v, want 3600", created["expiresIn"])
	}
	if created["message"] != "Shield transaction created. Waiting for confirmation." {
		t.Errorf("message = %v", created["message"])
	}
	id := created["sessionId"].(string)
	if !strings.HasPrefix(id, "SHIELD_") {
		t.Errorf("sessionId = %q, want SHIELD_ prefix", id)
	}
	proofHash := created["proof"].(map[string]any)["hash"].(string)

	if got := counter(t, s, "total_shields"); got != 1 {
		t.Errorf("total_shields after = %v, want 1", got)
	}

	w, body := s.do(t, http.MethodGet, "/api/privacy/shield?sessionId="+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d body %s", w.Code, w.Body.String())
	}
	sess := body["session"].(map[string]any)
	if sess["status"] != "pending" || sess["amount"] != float64(10) || sess["proofHash"] != proofHash {
		t.Errorf("session = %v", sess)
	}

	w, body = s.do(t, http.MethodPost, "/api/proofs/"+proofHash+"/verify", nil)
	if w.Code != http.StatusOK || body["valid"] != true {
		t.Errorf("verify: status %d body %v", w.Code, body)
	}
}

func TestRouter_WalletAddressAlias(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/privacy/unshield", map[string]any{"walletAddress": ownerA, "amount": 1.5})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(body["sessionId"].(string), "UNSHIELD_") {
		t.Errorf("sessionId = %v", body["sessionId"])
	}
}

func TestRouter_CreateRejected(t *testing.T) {
	tests := []struct {
		name string
		path string
		body any
		code string
		want int
	}{
		{"negative amount", "/api/privacy/shield", map[string]any{"ownerAddress": ownerA, "amount": -5}, "ZC-ARG-4003", http.StatusBadRequest},
		{"zero amount", "/api/privacy/shield", map[string]any{"ownerAddress": ownerA, "amount": 0}, "ZC-ARG-4003", http.StatusBadRequest},
		{"missing owner", "/api/privacy/shield", map[string]any{"amount": 1}, "ZC-ARG-4002", http.StatusBadRequest},
		{"invalid address", "/api/privacy/shield", map[string]any{"ownerAddress": "nope", "amount": 1}, "ZC-CHAIN-4001", http.StatusBadRequest},
		{"malformed body", "/api/privacy/shield", `{"amount":`, "ZC-SYS-4000", http.StatusBadRequest},
		{"unknown operation", "/api/privacy/launder", map[string]any{"ownerAddress": ownerA, "amount": 1}, "ZC-SESS-4040", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w, body := s.do(t, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if body["success"] != false || body["code"] != tt.code {
				t.Errorf("body = %v, want code %s", body, tt.code)
			}
			if body["request_id"] == "" || body["request_id"] == nil {
				t.Error("request_id missing from error body")
			}
			if got := counter(t, s, "total_shields"); got != 0 {
				t.Errorf("total_shields = %v, want 0", got)
			}
			keys, err := s.kv.ScanPrefix(context.Background(), "session:")
			if err != nil {
				t.Fatalf("ScanPrefix: %v", err)
			}
			if len(keys) != 0 {
				t.Errorf("sessions persisted: %v", keys)
			}
		})
	}
}

func TestRouter_GetOperation(t *testing.T) {
	s := newTestServer(t)
	id := s.create(t, "transfer", ownerA, 3)["sessionId"].(string)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/api/privacy/transfer?sessionId=" + id, http.StatusOK},
		{"missing id", "/api/privacy/transfer", http.StatusBadRequest},
		{"unknown id", "/api/privacy/transfer?sessionId=TRANSFER_01HZZZZZZZZZZZZZZZZZZZZZZZ", http.StatusNotFound},
		{"wrong type", "/api/privacy/shield?sessionId=" + id, http.StatusNotFound},
		{"any type", "/api/privacy/sessions/" + id, http.StatusOK},
		{"any type unknown", "/api/privacy/sessions/TRANSFER_01HZZZZZZZZZZZZZZZZZZZZZZZ", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, http.MethodGet, tt.path, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRouter_ListAndStatus(t *testing.T) {
	s := newTestServer(t)
	first := s.create(t, "shield", ownerA, 1)["sessionId"].(string)
	time.Sleep(2 * time.Millisecond)
	second := s.create(t, "shield", ownerA, 2)["sessionId"].(string)
	s.create(t, "shield", ownerB, 3)

	w, body := s.do(t, http.MethodGet, "/api/privacy/sessions?ownerAddress="+ownerA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	list := body["sessions"].([]any)
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].(map[string]any)["sessionId"] != second {
		t.Errorf("first listed = %v, want newest %s", list[0], second)
	}

	w, body = s.do(t, http.MethodPost, "/api/privacy/sessions/"+first+"/status",
		map[string]any{"status": "completed", "txSignature": "sig-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status update: %d body %s", w.Code, w.Body.String())
	}
	sess := body["session"].(map[string]any)
	if sess["status"] != "completed" || sess["txSignature"] != "sig-1" {
		t.Errorf("session = %v", sess)
	}

	w, body = s.do(t, http.MethodPost, "/api/privacy/sessions/"+first+"/status", map[string]any{"status": "pending"})
	if w.Code != http.StatusConflict || body["code"] != "ZC-SESS-4092" {
		t.Errorf("regression: status %d body %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodPost, "/api/privacy/sessions/"+second+"/status",
		map[string]any{"status": "processing", "expectedVersion": 99})
	if w.Code != http.StatusConflict || body["code"] != "ZC-SESS-4091" {
		t.Errorf("version conflict: status %d body %v", w.Code, body)
	}

	w, _ = s.do(t, http.MethodGet, "/api/privacy/sessions", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("list without owner: status %d, want 400", w.Code)
	}
}

func TestRouter_SubmitAndSync(t *testing.T) {
	s := newTestServer(t)
	s.chain.submitSig = "sig-submit"
	id := s.create(t, "shield", ownerA, 1)["sessionId"].(string)

	tx := base64.StdEncoding.EncodeToString([]byte("signed"))
	w, body := s.do(t, http.MethodPost, "/api/privacy/sessions/"+id+"/submit", map[string]any{"transaction": tx})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d body %s", w.Code, w.Body.String())
	}
	if got := body["session"].(map[string]any)["status"]; got != "processing" {
		t.Errorf("status after submit = %v, want processing", got)
	}

	w, body = s.do(t, http.MethodPost, "/api/privacy/sessions/"+id+"/sync", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sync: %d body %s", w.Code, w.Body.String())
	}
	if got := body["session"].(map[string]any)["status"]; got != "completed" {
		t.Errorf("status after sync = %v, want completed", got)
	}

	w, _ = s.do(t, http.MethodPost, "/api/privacy/sessions/"+id+"/submit", map[string]any{"transaction": "%%%"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad base64: status %d, want 400", w.Code)
	}
}

func TestRouter_ChainFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t)
	s.chain.submitErr = domain.ErrUpstreamFailure.WithDetails("rpc down")
	id := s.create(t, "shield", ownerA, 1)["sessionId"].(string)

	tx := base64.StdEncoding.EncodeToString([]byte("signed"))
	w, body := s.do(t, http.MethodPost, "/api/privacy/sessions/"+id+"/submit", map[string]any{"transaction": tx})
	if w.Code != http.StatusBadGateway || body["code"] != "ZC-CHAIN-5020" {
		t.Errorf("status %d body %v", w.Code, body)
	}
}

func TestRouter_Webhook(t *testing.T) {
	s := newTestServer(t)
	id := s.create(t, "bridge", ownerA, 4)["sessionId"].(string)

	w, body := s.do(t, http.MethodPost, "/api/webhooks/chain", map[string]any{
		"sessionId":   id,
		"source":      "helius",
		"status":      "processing",
		"txSignature": "sig-hook",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("webhook: %d body %s", w.Code, w.Body.String())
	}
	if body["eventId"] == "" {
		t.Error("eventId missing")
	}
	if got := body["session"].(map[string]any)["status"]; got != "processing" {
		t.Errorf("status = %v, want processing", got)
	}

	w, body = s.do(t, http.MethodGet, "/api/privacy/sessions/"+id+"/webhook", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("last webhook: %d body %s", w.Code, w.Body.String())
	}
	hook := body["webhook"].(map[string]any)
	if hook["source"] != "helius" {
		t.Errorf("webhook = %v", hook)
	}

	w, _ = s.do(t, http.MethodPost, "/api/webhooks/chain", map[string]any{"source": "helius"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing session: status %d, want 400", w.Code)
	}
}

func TestRouter_BalanceAndProofs(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/balance/"+ownerA, nil)
	if w.Code != http.StatusOK || body["publicBalance"] != 2.5 || body["cached"] != false {
		t.Fatalf("balance: %d body %v", w.Code, body)
	}
	_, body = s.do(t, http.MethodGet, "/api/balance/"+ownerA, nil)
	if body["cached"] != true {
		t.Errorf("second lookup cached = %v, want true", body["cached"])
	}
	_, body = s.do(t, http.MethodGet, "/api/balance/"+ownerA+"?refresh=true", nil)
	if body["cached"] != false {
		t.Errorf("refresh cached = %v, want false", body["cached"])
	}
	w, _ = s.do(t, http.MethodGet, "/api/balance/not-an-address", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid address: status %d, want 400", w.Code)
	}

	hash := s.create(t, "shield", ownerA, 1)["proof"].(map[string]any)["hash"].(string)

	w, body = s.do(t, http.MethodGet, "/api/proofs/"+hash, nil)
	if w.Code != http.StatusOK || body["proof"].(map[string]any)["proofHash"] != hash {
		t.Errorf("get proof: %d body %v", w.Code, body)
	}
	w, body = s.do(t, http.MethodGet, "/api/proofs/"+hash+"/metadata", nil)
	if w.Code != http.StatusOK || body["metadata"].(map[string]any)["valid"] != true {
		t.Errorf("metadata: %d body %v", w.Code, body)
	}
	w, _ = s.do(t, http.MethodGet, "/api/proofs/deadbeef", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing proof: status %d, want 404", w.Code)
	}

	w, body = s.do(t, http.MethodPost, "/api/proofs/verify", map[string]any{"hashes": []string{hash, "deadbeef"}})
	if w.Code != http.StatusOK {
		t.Fatalf("batch: %d body %s", w.Code, w.Body.String())
	}
	results := body["results"].(map[string]any)
	if results[hash] != true || results["deadbeef"] != false {
		t.Errorf("results = %v", results)
	}
}

func TestRouter_Admin(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/admin/v1/gc/trigger", nil)
	if w.Code != http.StatusUnauthorized || body["code"] != "ZC-AUTH-4010" {
		t.Errorf("no key: %d body %v", w.Code, body)
	}
	w, _ = s.do(t, http.MethodPost, "/admin/v1/gc/trigger", nil, "X-API-Key", "zcak_wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status %d, want 401", w.Code)
	}

	w, body = s.do(t, http.MethodPost, "/admin/v1/gc/trigger", nil, "X-API-Key", s.adminKey)
	if w.Code != http.StatusOK || body["cleaned_count"] != float64(0) {
		t.Errorf("trigger: %d body %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodGet, "/admin/v1/status/summary", nil, "Authorization", "Bearer "+s.adminKey)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d body %s", w.Code, w.Body.String())
	}
	if body["engine"] != "memory" || body["status"] != "running" {
		t.Errorf("summary = %v", body)
	}
	if body["network"].(map[string]any)["network"] != "devnet" {
		t.Errorf("network = %v", body["network"])
	}
	if body["last_sweep"] == nil {
		t.Error("last_sweep missing after trigger")
	}
}

func TestRouter_AdminDisabledWithoutKeys(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig, _ *handler.Deps) {
		cfg.Admin = service.NewAdminAuthenticator(service.AdminAuthConfig{})
	})
	w, _ := s.do(t, http.MethodPost, "/admin/v1/gc/trigger", nil, "X-API-Key", s.adminKey)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
}

func TestRouter_HealthAndReady(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/ready"} {
		w, _ := s.do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, w.Code)
		}
	}

	down := newTestServer(t, func(_ *RouterConfig, deps *handler.Deps) {
		deps.Store = failingPinger{}
	})
	w, body := down.do(t, http.MethodGet, "/ready", nil)
	if w.Code != http.StatusInternalServerError || body["code"] != "ZC-SYS-5020" {
		t.Errorf("ready with store down: %d body %v", w.Code, body)
	}
}

func TestRouter_RequestID(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/health", nil, HeaderRequestID, "req-abc")
	if got := w.Header().Get(HeaderRequestID); got != "req-abc" {
		t.Errorf("echoed request id = %q", got)
	}
	w, _ = s.do(t, http.MethodGet, "/health", nil)
	if w.Header().Get(HeaderRequestID) == "" {
		t.Error("request id not generated")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig, _ *handler.Deps) {
		cfg.Limiters = service.NewRateLimiterRegistry(2)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w, _ := s.do(t, http.MethodGet, "/api/stats", nil)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	w, _ := s.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health is rate limited: %d", w.Code)
	}
}

func TestRouter_MetricsAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/stats", nil)

	w, _ := s.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "zumi_http_requests_total") {
		t.Errorf("metrics: %d", w.Code)
	}

	w, body := s.do(t, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound || body["success"] != false {
		t.Errorf("unknown route: %d body %v", w.Code, body)
	}
	w, _ = s.do(t, http.MethodDelete, "/api/stats", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: %d, want 405", w.Code)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv, err := New(Config{Addr: "127.0.0.1:0"}, NewRouter(&RouterConfig{
		Handler: handler.New(handler.Deps{Logger: logger.Nop()}),
		Logger:  logger.Nop(),
	}), logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"ZC-ARG-4001", 400},
		{"ZC-SESS-4040", 404},
		{"ZC-SESS-4091", 409},
		{"ZC-AUTH-4290", 429},
		{"ZC-CHAIN-5020", 502},
		{"ZC-SYS-5020", 500},
		{"ZC-SESS-5090", 500},
		{"garbage", 500},
	}
	for _, tt := range tests {
		if got := handler.StatusForCode(tt.code); got != tt.want {
			t.Errorf("StatusForCode(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
