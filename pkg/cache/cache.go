// Package cache stores rendered expansions so repeated runs over an
// unchanged graph skip the walk.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: stores nothing (--no-cache)
//
// # Keys
//
// A [Keyer] derives keys from the content hash of a graph plus every option
// that changes the output, so a changed input or option never hits a stale
// entry:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ExpandKey(cache.Hash(canonical), cache.ExpandKeyOpts{Roots: roots})
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value. The boolean is false on a miss or an
	// expired entry.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any held resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer derives cache keys.
type Keyer interface {
	// ExpandKey is the key for a rendered text expansion.
	ExpandKey(graphHash string, opts ExpandKeyOpts) string

	// DOTKey is the key for a node-link export.
	DOTKey(graphHash string, opts DOTKeyOpts) string
}

// ExpandKeyOpts lists the options that change a text expansion.
type ExpandKeyOpts struct {
	Roots      []string `json:"roots,omitempty"`
	MaxNodes   int      `json:"max_nodes,omitempty"`
	Duplicates bool     `json:"duplicates,omitempty"`
	Strict     bool     `json:"strict,omitempty"`
}

// DOTKeyOpts lists the options that change a node-link export.
type DOTKeyOpts struct {
	Roots    []string `json:"roots,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Format   string   `json:"format"`
}

// DefaultKeyer builds keys of the form "kind:sha256(parts)".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ExpandKey implements Keyer.
func (DefaultKeyer) ExpandKey(graphHash string, opts ExpandKeyOpts) string {
	return hashKey("expand", graphHash, opts)
}

// DOTKey implements Keyer.
func (DefaultKeyer) DOTKey(graphHash string, opts DOTKeyOpts) string {
	return hashKey("dot", graphHash, opts)
}

// Hash returns the hex SHA-256 of data. Graph hashes are taken over the
// canonical encoding from graph.Marshal.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// NullCache misses on every Get and discards every Set.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)          { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                      { return nil }
func (NullCache) Close() error                                              { return nil }
