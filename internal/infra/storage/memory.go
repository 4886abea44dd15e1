package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	domain "github.com/inference-gateway/toolgate/internal/domain"
)

var _ domain.CacheStore = (*MemoryCache)(nil)

// MemoryCache implements domain.CacheStore in process memory.
// Expired entries are dropped lazily on read and on every write.
type MemoryCache struct {
	entries map[string]memoryEntry
	mutex   sync.RWMutex
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests
func (m *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	m.now = now
	return m
}

// Get returns the value stored under key
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mutex.RLock()
	entry, exists := m.entries[key]
	m.mutex.RUnlock()

	if !exists || entry.expired(m.now()) {
		return nil, domain.ErrCacheMiss
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// SetWithTTL stores value under key. A non-positive ttl never expires.
func (m *MemoryCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	m.evictExpiredLocked(now)

	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	m.entries[key] = entry
	return nil
}

// Delete removes key
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.entries, key)
	return nil
}

// DeleteByPrefix removes every key starting with prefix
func (m *MemoryCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// Len returns the number of live entries
func (m *MemoryCache) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	now := m.now()
	count := 0
	for _, entry := range m.entries {
		if !entry.expired(now) {
			count++
		}
	}
	return count
}

// Close clears the cache
func (m *MemoryCache) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries = make(map[string]memoryEntry)
	return nil
}

func (m *MemoryCache) evictExpiredLocked(now time.Time) {
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
}
