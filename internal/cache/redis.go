package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared Store implementation backed by a Redis server.
// Values travel as JSON text and TTLs are expressed in whole seconds
// on the wire; expiry itself is handled by the server.
type Redis struct {
	rdb *redis.Client
}

// NewRedis wraps an already-connected client.  The caller owns the
// client lifecycle.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Set stores the JSON encoding of value under key.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl > 0 {
		// Round sub-second TTLs up so the wire value stays in whole
		// seconds and short-lived entries are not dropped immediately.
		if ttl < time.Second {
			ttl = time.Second
		}
		ttl = ttl.Truncate(time.Second)
	}
	return r.rdb.Set(ctx, key, data, ttl).Err()
}

// Get decodes the entry under key into dest and reports presence.
func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes key and reports whether an entry was present.
func (r *Redis) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exists reports whether an entry is stored under key.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear drops every entry in the selected database.
func (r *Redis) Clear(ctx context.Context) error {
	return r.rdb.FlushDB(ctx).Err()
}

// Keys enumerates matching keys with SCAN so a large keyspace never
// blocks the server the way KEYS would.  The single-"*" pattern
// contract maps directly onto Redis MATCH globs.
func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := r.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
