package curly

import (
	"sync"
	"time"
)

// Fragment is the stored result of a {{#cache key}} block. Signal is
// replayed on a hit so a cached {{#break}} still ends the enclosing loop.
type Fragment struct {
	Out    string
	Signal Signal
}

// OutputCache stores rendered fragments for {{#cache key}} blocks.
type OutputCache interface {
	Get(key string) (Fragment, bool)
	Set(key string, f Fragment)
}

type cacheEntry struct {
	frag    Fragment
	expires time.Time
}

// MemoryCache is an in-process OutputCache. Entries expire after TTL; a zero
// TTL keeps them until Purge.
type MemoryCache struct {
	TTL time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryCache returns an empty cache with the given entry lifetime.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{TTL: ttl, entries: map[string]cacheEntry{}, now: time.Now}
}

func (m *MemoryCache) Get(key string) (Fragment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Fragment{}, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return Fragment{}, false
	}
	return e.frag, true
}

func (m *MemoryCache) Set(key string, f Fragment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]cacheEntry{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	e := cacheEntry{frag: f}
	if m.TTL > 0 {
		e.expires = m.now().Add(m.TTL)
	}
	m.entries[key] = e
}

// Purge drops every entry.
func (m *MemoryCache) Purge() {
	m.mu.Lock()
	m.entries = map[string]cacheEntry{}
	m.mu.Unlock()
}

// Len is the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
