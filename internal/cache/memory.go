package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

type memoryEntry struct {
	order     domain.Order
	expiresAt time.Time
}

// MemoryCache — in-memory кэш заказов для локальной разработки и тестов.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory создаёт in-memory кэш с TTL по умолчанию.
func NewMemory() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     defaultOrderTTL,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, id string) (domain.Order, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok {
		return domain.Order{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		return domain.Order{}, false
	}
	return entry.order, true
}

func (c *MemoryCache) Put(_ context.Context, order domain.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[order.ID] = memoryEntry{
		order:     order,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *MemoryCache) Evict(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// PurgeExpired удаляет просроченные записи и возвращает их количество.
// Get чистит записи лениво; периодический вызов не даёт мёртвым записям
// накапливаться при редких чтениях.
func (c *MemoryCache) PurgeExpired(_ context.Context) (int, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	purged := 0
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
			purged++
		}
	}
	return purged, nil
}

var _ domain.OrderCache = (*MemoryCache)(nil)
