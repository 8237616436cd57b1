// Package framecache caches replay frame bytes in front of object storage.
package framecache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Defaults applied when a backend is built with non-positive limits.
const (
	DefaultTTL        = 10 * time.Minute
	DefaultMaxEntries = 500
)

// Cache stores frame bytes by key. A miss and an expired entry look the same
// to callers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, data []byte)
}

type entry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// Memory is a process-local cache with a fixed TTL and entry cap. At capacity
// it evicts the entry inserted first; reads never change eviction order.
// Expired entries are removed when read, not swept.
type Memory struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	order   *list.List
	entries map[string]*list.Element
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(ttl time.Duration, maxEntries int, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	m := &Memory{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		order:      list.New(),
		entries:    make(map[string]*list.Element, maxEntries),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry) //nolint:forcetypeassert // list holds only *entry
	if !m.now().Before(e.expiresAt) {
		m.order.Remove(el)
		delete(m.entries, key)
		return nil, false
	}
	return e.data, true
}

// Put stores data under key. Replacing an existing key refreshes its bytes
// and expiry but keeps its place in the eviction order.
func (m *Memory) Put(_ context.Context, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt := m.now().Add(m.ttl)
	if el, ok := m.entries[key]; ok {
		e := el.Value.(*entry) //nolint:forcetypeassert // list holds only *entry
		e.data = data
		e.expiresAt = expiresAt
		return
	}

	if len(m.entries) >= m.maxEntries {
		if oldest := m.order.Front(); oldest != nil {
			m.order.Remove(oldest)
			delete(m.entries, oldest.Value.(*entry).key) //nolint:forcetypeassert // list holds only *entry
		}
	}

	m.entries[key] = m.order.PushBack(&entry{key: key, data: data, expiresAt: expiresAt})
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
