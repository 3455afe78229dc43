// Package kvtest holds a behavioural test suite shared by every
// storage.KV backend.
package kvtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/zumicash/zumi-go/internal/storage"
)

// Options tunes the suite for a backend.
type Options struct {
	// TTL is the expiry used by the expiry test. Zero skips it.
	TTL time.Duration
	// Wait is how long to sleep past TTL before checking expiry.
	Wait time.Duration
}

// Run exercises kv against the storage.KV contract. The store must be empty.
func Run(t *testing.T, kv storage.KV, opts Options) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGet", func(t *testing.T) {
		if err := kv.Put(ctx, "t:a", []byte("1"), 0); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := kv.Get(ctx, "t:a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "1" {
			t.Errorf("Get = %q, want 1", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := kv.Put(ctx, "t:b", []byte("old"), 0); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := kv.Put(ctx, "t:b", []byte("new"), 0); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if got, _ := kv.Get(ctx, "t:b"); string(got) != "new" {
			t.Errorf("Get = %q, want new", got)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		if _, err := kv.Get(ctx, "t:missing"); !errors.Is(err, storage.ErrKeyNotFound) {
			t.Errorf("Get missing error = %v, want ErrKeyNotFound", err)
		}
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		if err := kv.Put(ctx, "t:del", []byte("x"), 0); err != nil {
			t.Fatalf("Put: %v", err)
		}
		for i := 0; i < 2; i++ {
			if err := kv.Delete(ctx, "t:del"); err != nil {
				t.Fatalf("Delete #%d: %v", i, err)
			}
		}
		if _, err := kv.Get(ctx, "t:del"); !errors.Is(err, storage.ErrKeyNotFound) {
			t.Errorf("Get after delete error = %v", err)
		}
	})

	t.Run("ScanPrefix", func(t *testing.T) {
		for _, k := range []string{"scan:c", "scan:a", "scan:b", "scanx", "other:a"} {
			if err := kv.Put(ctx, k, []byte("v"), 0); err != nil {
				t.Fatalf("Put(%s): %v", k, err)
			}
		}
		keys, err := kv.ScanPrefix(ctx, "scan:")
		if err != nil {
			t.Fatalf("ScanPrefix: %v", err)
		}
		want := []string{"scan:a", "scan:b", "scan:c"}
		if fmt.Sprint(keys) != fmt.Sprint(want) {
			t.Errorf("ScanPrefix = %v, want %v", keys, want)
		}

		none, err := kv.ScanPrefix(ctx, "nothing:")
		if err != nil || len(none) != 0 {
			t.Errorf("ScanPrefix(nothing:) = %v, %v", none, err)
		}
	})

	t.Run("Increment", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			got, err := kv.Increment(ctx, "t:counter")
			if err != nil {
				t.Fatalf("Increment: %v", err)
			}
			if got != want {
				t.Errorf("Increment = %d, want %d", got, want)
			}
		}
		raw, err := kv.Get(ctx, "t:counter")
		if err != nil || string(raw) != "3" {
			t.Errorf("Get counter = %q, %v", raw, err)
		}
	})

	t.Run("IncrementNotInteger", func(t *testing.T) {
		if err := kv.Put(ctx, "t:text", []byte("abc"), 0); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if _, err := kv.Increment(ctx, "t:text"); err == nil {
			t.Error("Increment on non-integer should fail")
		}
	})

	t.Run("IncrementConcurrent", func(t *testing.T) {
		const workers, each = 8, 25
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < each; i++ {
					if _, err := kv.Increment(ctx, "t:hot"); err != nil {
						errs <- err
						return
					}
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("Increment: %v", err)
		}
		if raw, _ := kv.Get(ctx, "t:hot"); string(raw) != fmt.Sprint(workers*each) {
			t.Errorf("hot counter = %q, want %d", raw, workers*each)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := kv.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})

	if opts.TTL <= 0 {
		return
	}

	t.Run("Expiry", func(t *testing.T) {
		if err := kv.Put(ctx, "ttl:gone", []byte("x"), opts.TTL); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := kv.Put(ctx, "ttl:kept", []byte("x"), 0); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if _, err := kv.Get(ctx, "ttl:gone"); err != nil {
			t.Fatalf("Get before expiry: %v", err)
		}

		time.Sleep(opts.TTL + opts.Wait)

		if _, err := kv.Get(ctx, "ttl:gone"); !errors.Is(err, storage.ErrKeyNotFound) {
			t.Errorf("Get after expiry error = %v, want ErrKeyNotFound", err)
		}
		keys, err := kv.ScanPrefix(ctx, "ttl:")
		if err != nil {
			t.Fatalf("ScanPrefix: %v", err)
		}
		if len(keys) != 1 || keys[0] != "ttl:kept" {
			t.Errorf("ScanPrefix after expiry = %v, want [ttl:kept]", keys)
		}
	})
}
