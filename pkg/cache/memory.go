package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is an in-process Cache on top of ttlcache. Expired entries are
// invisible to Get at once and removed by the background cleaner between
// Start and Stop.
type Memory struct {
	items *ttlcache.Cache[string, []byte]

	mu      sync.Mutex
	running bool
}

func NewMemory() *Memory {
	return &Memory{
		items: ttlcache.New[string, []byte](
			// a hit must not extend the entry past its operation TTL
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

// Start launches the expired-entry cleaner.
func (m *Memory) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	go m.items.Start()
}

// Stop halts the cleaner. It is safe to call without Start.
func (m *Memory) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	m.items.Stop()
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := m.items.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	m.items.Set(key, buf, ttl)
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range m.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.items.Delete(key)
		}
	}
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	n := 0
	m.items.Range(func(*ttlcache.Item[string, []byte]) bool {
		n++
		return true
	})
	return n
}
