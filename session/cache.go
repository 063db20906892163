package session

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the storage contract for session state. Implementations must be
// safe for concurrent use.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
}

// MemoryCache is a plain map-backed core for tests and single-process use.
type MemoryCache[S any] struct {
	mu sync.RWMutex
	m  map[string]S
}

func NewMemoryCache[S any]() *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]S{}}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	m.mu.Lock()
	m.m[key] = val
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	val, ok := m.m[key]
	m.mu.RUnlock()
	return val, ok, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

// TTLCache expires idle sessions. Every Set refreshes the clock, so a session
// only dies after the user has been silent for the full TTL.
type TTLCache[S any] struct {
	core *gocache.Cache
}

func NewTTLCache[S any](ttl time.Duration) *TTLCache[S] {
	return &TTLCache[S]{core: gocache.New(ttl, ttl)}
}

func (t *TTLCache[S]) Set(ctx context.Context, key string, val S) error {
	t.core.SetDefault(key, val)
	return nil
}

func (t *TTLCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	raw, ok := t.core.Get(key)
	if !ok {
		var zero S
		return zero, false, nil
	}
	val, ok := raw.(S)
	if !ok {
		var zero S
		return zero, false, nil
	}
	return val, true, nil
}

func (t *TTLCache[S]) Del(ctx context.Context, key string) error {
	t.core.Delete(key)
	return nil
}

// keyedMutex serializes work per session id while letting distinct sessions
// proceed in parallel. Entries are never reclaimed; the set of live session
// ids in one process is small enough that this does not matter.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*sync.Mutex{}}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}
