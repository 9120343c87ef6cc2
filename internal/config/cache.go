package config

import "time"

// CacheConfig defines settings for the advisory cache layer.  Backend
// selects the implementation at runtime; when "redis" is selected but
// the server is unreachable at startup the application degrades to the
// in-process store.  ReadTimeout bounds cache lookups on the request
// path (a slow cache degrades to a miss, it never blocks a request);
// the TTL fields set how long each class of entry may go stale after a
// missed invalidation.
type CacheConfig struct {
	Backend       string        // "memory" or "redis"
	ReadTimeout   time.Duration // bound on cache reads; exceeded = miss
	WriteTimeout  time.Duration // bound on fire-and-forget cache writes
	EntityTTL     time.Duration // single-entity reads
	ListTTL       time.Duration // bulk "all" listings
	AvailableTTL  time.Duration // volatile "available spots" listing
	SweepInterval time.Duration // in-process janitor period
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Backend:       getenv("CACHE_BACKEND", "memory"),
		ReadTimeout:   parseDur(getenv("CACHE_READ_TIMEOUT", "150ms")),
		WriteTimeout:  parseDur(getenv("CACHE_WRITE_TIMEOUT", "2s")),
		EntityTTL:     parseDur(getenv("CACHE_ENTITY_TTL", "5m")),
		ListTTL:       parseDur(getenv("CACHE_LIST_TTL", "2m")),
		AvailableTTL:  parseDur(getenv("CACHE_AVAILABLE_TTL", "1m")),
		SweepInterval: parseDur(getenv("CACHE_SWEEP_INTERVAL", "1m")),
	}
}
