package cache

import (
	"context"
	"sync"
	"time"
)

// Clock supplies the current time to Memory.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type entry struct {
	value   []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Memory is an in-process Cache. Expired entries are dropped lazily on
// access and by Purge.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   Clock
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return NewMemoryWithClock(systemClock{})
}

// NewMemoryWithClock creates an in-process cache that reads time from clock.
func NewMemoryWithClock(clock Clock) *Memory {
	if clock == nil {
		clock = systemClock{}
	}
	return &Memory{
		entries: make(map[string]entry),
		clock:   clock,
	}
}

// Get implements Cache.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if e.expired(m.clock.Now()) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expired(m.clock.Now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set implements Cache.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expires = m.clock.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Purge removes expired entries and returns how many were dropped.
func (m *Memory) Purge() int {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

var _ Cache = (*Memory)(nil)
