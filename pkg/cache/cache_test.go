package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "k", []byte("-a\n"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "-a\n" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !errors.Is(err, os.ErrNotExist) {
		t.Error("expired entry should be removed")
	}

	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%s survived Clear", k)
		}
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("cache dir missing after Clear: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := k.ExpandKey("abc", ExpandKeyOpts{})
	if base != k.ExpandKey("abc", ExpandKeyOpts{}) {
		t.Error("ExpandKey should be deterministic")
	}
	for name, opts := range map[string]ExpandKeyOpts{
		"roots":      {Roots: []string{"a"}},
		"max nodes":  {MaxNodes: 10},
		"duplicates": {Duplicates: true},
		"strict":     {Strict: true},
	} {
		if k.ExpandKey("abc", opts) == base {
			t.Errorf("%s should change the key", name)
		}
	}
	if k.ExpandKey("abd", ExpandKeyOpts{}) == base {
		t.Error("graph hash should change the key")
	}
	if k.ExpandKey("a", ExpandKeyOpts{Roots: []string{"b", "c"}}) == k.ExpandKey("a", ExpandKeyOpts{Roots: []string{"c", "b"}}) {
		t.Error("root order should change the key")
	}

	d1 := k.DOTKey("abc", DOTKeyOpts{Format: "svg"})
	if d1 == k.DOTKey("abc", DOTKeyOpts{Format: "dot"}) {
		t.Error("format should change the DOT key")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	k := NewScopedKeyer(nil, "deptree:")

	want := "deptree:" + inner.ExpandKey("h", ExpandKeyOpts{MaxNodes: 3})
	if got := k.ExpandKey("h", ExpandKeyOpts{MaxNodes: 3}); got != want {
		t.Errorf("ExpandKey = %q, want %q", got, want)
	}
	want = "deptree:" + inner.DOTKey("h", DOTKeyOpts{Format: "svg"})
	if got := k.DOTKey("h", DOTKeyOpts{Format: "svg"}); got != want {
		t.Errorf("DOTKey = %q, want %q", got, want)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	err := retryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return retryable{errors.New("flaky")}
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("err=%v calls=%d; want success on 2nd call", err, calls)
	}

	calls = 0
	permanent := errors.New("bad auth")
	err = retryWithBackoff(ctx, func() error { calls++; return permanent })
	if err != permanent || calls != 1 {
		t.Errorf("err=%v calls=%d; want immediate failure", err, calls)
	}

	calls = 0
	transient := errors.New("timeout")
	err = retryWithBackoff(ctx, func() error { calls++; return retryable{transient} })
	if err != transient || calls != 3 {
		t.Errorf("err=%v calls=%d; want unwrapped error after 3 calls", err, calls)
	}
}

// TestRedisCache runs against a live server named by DEPTREE_TEST_REDIS_URL.
func TestRedisCache(t *testing.T) {
	url := os.Getenv("DEPTREE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DEPTREE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url, "deptree-test:")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	defer c.Clear(ctx)

	key := "deptree-test:" + NewDefaultKeyer().ExpandKey("h", ExpandKeyOpts{})
	if err := c.Set(ctx, key, []byte("-a\n"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "-a\n" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("key survived Clear")
	}
}

func TestRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "http://nope", "x:"); err == nil {
		t.Error("expected error for non-redis url")
	}
}
