// Package cache holds the read-through cache used for product reads and
// authenticated user lookups. Redis backs it in deployments; Memory serves
// single-process runs and tests.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type Store interface {
	// GetJSON decodes the value at key into dest and reports whether it was found.
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key layout shared by every Store implementation.
const (
	ProductPrefix     = "product:"
	ProductListPrefix = "products:list:"
	UserPrefix        = "user:"
)

func ProductKey(id string) string {
	return ProductPrefix + id
}

func UserKey(id string) string {
	return UserPrefix + id
}

type item struct {
	value      []byte
	expiration int64
}

// Memory is an in-process Store with per-entry TTL.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

func NewMemory(defaultTTL time.Duration, cleanupEvery time.Duration) *Memory {
	m := &Memory{
		items: make(map[string]item),
		ttl:   defaultTTL,
		done:  make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go m.cleanupExpired(cleanupEvery)
	}
	return m
}

func (m *Memory) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.RLock()
	it, found := m.items[key]
	m.mu.RUnlock()

	if !found || time.Now().UnixNano() > it.expiration {
		return false, nil
	}
	if err := json.Unmarshal(it.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) SetJSON(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	m.mu.Lock()
	m.items[key] = item{value: data, expiration: time.Now().Add(ttl).UnixNano()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close stops the cleanup goroutine.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *Memory) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now().UnixNano()
			m.mu.Lock()
			for key, it := range m.items {
				if now > it.expiration {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, interface{}) (bool, error)        { return false, nil }
func (Noop) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error                           { return nil }
func (Noop) DeletePrefix(context.Context, string) error                        { return nil }
