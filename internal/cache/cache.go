package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Memory is a small in-process TTL cache used to memoize admin listing
// results. It is a performance optimization only: entries reflect writes
// after invalidation or TTL expiry, never sooner.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
	logger  *zap.Logger
}

type entry struct {
	data    any
	expires time.Time
	tags    []string
}

func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
		logger:  logger,
	}
}

// Get returns the stored value for key, or ok=false if the key is absent
// or past its expiry. A stale entry is evicted on read.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(item.expires) {
		delete(m.entries, key)
		return nil, false
	}

	return item.data, true
}

// Set stores value under key with the given TTL, overwriting any previous
// entry. Optional tags allow bulk invalidation via InvalidateTag.
func (m *Memory) Set(key string, value any, ttl time.Duration, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{
		data:    value,
		expires: m.now().Add(ttl),
		tags:    tags,
	}
}

// Delete removes the exact key, or, when pattern contains a "*" marker,
// every key containing the literal prefix before the marker. Deleting a
// missing key is a no-op.
func (m *Memory) Delete(pattern string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !strings.Contains(pattern, "*") {
		delete(m.entries, pattern)
		return
	}

	prefix := strings.ReplaceAll(pattern, "*", "")
	for key := range m.entries {
		if strings.Contains(key, prefix) {
			delete(m.entries, key)
		}
	}
}

// InvalidateTag removes every entry stored with the given tag.
func (m *Memory) InvalidateTag(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, item := range m.entries {
		for _, t := range item.tags {
			if t == tag {
				delete(m.entries, key)
				break
			}
		}
	}
}

// Flush clears all entries.
func (m *Memory) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]entry)
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// StartReaper evicts expired entries every interval until ctx is done,
// bounding memory growth from abandoned keys.
func (m *Memory) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := m.reap(); evicted > 0 {
					m.logger.Debug("cache reaper evicted entries", zap.Int("evicted", evicted))
				}
			}
		}
	}()
}

func (m *Memory) reap() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	evicted := 0
	for key, item := range m.entries {
		if now.After(item.expires) {
			delete(m.entries, key)
			evicted++
		}
	}

	return evicted
}
