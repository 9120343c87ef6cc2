package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// memoryEntry holds one cached value.  A zero expiresAt means the
// entry never expires.
type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is the in-process Store implementation.  Entries expire
// lazily on read; a background janitor additionally sweeps expired
// entries so long-unread keys do not pile up.  The sweep is a
// best-effort optimisation and nothing depends on it for correctness.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

// NewMemory creates an in-process store and starts its janitor.  A
// non-positive sweepInterval disables the janitor.  Call Close when
// the store is no longer needed.
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.janitor(sweepInterval)
	}
	return m
}

// Close stops the janitor goroutine.  The store remains usable.
func (m *Memory) Close() { m.once.Do(func() { close(m.stop) }) }

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// sweep removes every entry already past its expiry.
func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
}

// Set stores the JSON encoding of value under key.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Get decodes the entry under key into dest.  An expired entry is
// reclaimed and reported as absent.
func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && e.expired(time.Now()) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes key and reports whether a live entry was present.
func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	delete(m.entries, key)
	return !e.expired(time.Now()), nil
}

// Exists reports whether a live entry is stored under key, reclaiming
// it when expired.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if e.expired(time.Now()) {
		delete(m.entries, key)
		return false, nil
	}
	return true, nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Keys returns the live keys matching pattern (see Store.Keys for the
// pattern contract).
func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	now := time.Now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k, e := range m.entries {
		if e.expired(now) {
			continue
		}
		if matchKey(pattern, k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
