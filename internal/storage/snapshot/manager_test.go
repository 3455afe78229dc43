package snapshot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zumicash/zumi-go/internal/storage/memory"
)

func seed(t *testing.T) *memory.KV {
	t.Helper()
	kv := memory.New()
	ctx := context.Background()
	for k, v := range map[string]string{
		"session:01A":    `{"sessionId":"01A"}`,
		"proof:abc":      `{"proofHash":"abc"}`,
		"counter:shield": "4",
	} {
		ttl := time.Hour
		if k == "counter:shield" {
			ttl = 0
		}
		if err := kv.Put(ctx, k, []byte(v), ttl); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	return kv
}

func TestManager_CreateRestorePlain(t *testing.T) {
	m, err := NewManager(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	info, err := m.Create(seed(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.EntryCount != 3 || info.Encrypted {
		t.Errorf("Info = %+v", info)
	}

	dst := memory.New()
	got, n, err := m.Restore(dst)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 3 || got.ID != info.ID || got.Checksum != info.Checksum {
		t.Errorf("Restore = %+v, %d", got, n)
	}
	v, err := dst.Get(context.Background(), "counter:shield")
	if err != nil || string(v) != "4" {
		t.Errorf("Get = %q, %v", v, err)
	}
}

func TestManager_CreateRestoreEncrypted(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(Config{Dir: dir, Passphrase: []byte("correct horse")})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	info, err := m.Create(seed(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !info.Encrypted {
		t.Fatal("snapshot not encrypted")
	}

	raw, err := os.ReadFile(info.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if bytes.Contains(raw, []byte("session:01A")) {
		t.Error("plaintext key found in encrypted snapshot")
	}

	if _, n, err := m.Restore(memory.New()); err != nil || n != 3 {
		t.Fatalf("Restore: n=%d err=%v", n, err)
	}

	wrong, _ := NewManager(Config{Dir: dir, Passphrase: []byte("battery staple")})
	if _, _, err := wrong.Restore(memory.New()); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("wrong passphrase: err = %v, want ErrDecryptionFailed", err)
	}

	none, _ := NewManager(Config{Dir: dir})
	if _, _, err := none.Restore(memory.New()); !errors.Is(err, ErrPassphraseNeeded) {
		t.Errorf("no passphrase: err = %v, want ErrPassphraseNeeded", err)
	}
}

func TestManager_RestoreSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(Config{Dir: dir})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	good, err := m.Create(seed(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	bad, err := m.Create(seed(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	data, _ := os.ReadFile(bad.Path)
	data[len(magicBytes)+6] ^= 0xff
	if err := os.WriteFile(bad.Path, data, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, _, err := m.Restore(memory.New())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got.ID != good.ID {
		t.Errorf("restored %s, want fallback to %s", got.ID, good.ID)
	}
}

func TestManager_RestoreEmpty(t *testing.T) {
	m, err := NewManager(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, _, err := m.Restore(memory.New()); !errors.Is(err, ErrNoSnapshots) {
		t.Errorf("err = %v, want ErrNoSnapshots", err)
	}
}

func TestManager_Prune(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(Config{Dir: dir, RetentionCount: 2})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	kv := seed(t)
	var last *Info
	for i := 0; i < 4; i++ {
		if last, err = m.Create(kv); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	infos, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 || infos[1].ID != last.ID {
		t.Errorf("List after prune = %d files, newest %v", len(infos), infos)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left: %v", leftovers)
	}
}

func TestNewManager_Validation(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Error("empty dir accepted")
	}
	if _, err := NewManager(Config{Dir: t.TempDir(), Passphrase: []byte("short")}); !errors.Is(err, ErrPassphraseTooWeak) {
		t.Errorf("err = %v, want ErrPassphraseTooWeak", err)
	}
}
