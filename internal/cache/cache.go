// Package cache provides the advisory key/value layer used in front of
// the relational store.  Two interchangeable implementations exist: an
// in-process map (no external dependency, lost on restart) and a Redis
// client (shared across processes).  Values are JSON-encoded in both so
// they stay interchangeable, and the cache is never the source of
// truth: every caller must produce a correct result with the cache
// absent, cleared or failing.
package cache

import (
	"context"
	"strings"
	"time"
)

// Store is the contract shared by both cache implementations.  A TTL of
// zero means the entry never expires.  Get and Exists treat an expired
// entry as absent and reclaim it.
type Store interface {
	// Set stores the JSON encoding of value under key.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get decodes the entry under key into dest and reports whether it
	// was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Delete removes key and reports whether an entry was present.
	Delete(ctx context.Context, key string) (bool, error)
	// Exists reports whether a live entry is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
	// Clear drops every entry.
	Clear(ctx context.Context) error
	// Keys returns the keys matching pattern, which is either a literal
	// key or a pattern with a single "*" wildcard matching any
	// substring, anchored to the full key.
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// matchKey implements the single-wildcard pattern contract shared by
// Keys implementations: "*" matches any substring, everything else is
// literal, and the pattern covers the whole key.
func matchKey(pattern, key string) bool {
	i := strings.IndexByte(pattern, '*')
	if i < 0 {
		return pattern == key
	}
	prefix, suffix := pattern[:i], pattern[i+1:]
	return len(key) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(key, prefix) &&
		strings.HasSuffix(key, suffix)
}
