package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", "deptree"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(base, "deptree"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCLICacheDirOverride(t *testing.T) {
	c := &CLI{config: Config{Cache: CacheConfig{Dir: "/var/cache/trees"}}}
	dir, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/var/cache/trees" {
		t.Errorf("cacheDir() = %q, want configured dir", dir)
	}

	c.config.Cache.Dir = ""
	dir, err = c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(dir, "deptree") {
		t.Errorf("cacheDir() = %q, want default location", dir)
	}
}
