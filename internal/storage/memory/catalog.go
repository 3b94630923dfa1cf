package memory

import (
	"context"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// catalog — представление каталога поверх Store. При lock=true каждая операция
// берёт блокировку хранилища (autocommit); при lock=false блокировку уже
// держит единица работы.
type catalog struct {
	store *Store
	lock  bool
}

func (c *catalog) FindByID(_ context.Context, id string) (domain.Product, error) {
	if c.lock {
		c.store.mu.Lock()
		defer c.store.mu.Unlock()
	}
	return c.store.getProduct(id)
}

func (c *catalog) Save(_ context.Context, product domain.Product) error {
	if c.lock {
		c.store.mu.Lock()
		defer c.store.mu.Unlock()
	}
	c.store.saveProduct(product)
	return nil
}

func (c *catalog) DecrementStock(_ context.Context, id string, qty int32) error {
	if c.lock {
		c.store.mu.Lock()
		defer c.store.mu.Unlock()
	}
	return c.store.decrementStock(id, qty)
}

func (c *catalog) IncrementStock(_ context.Context, id string, qty int32) error {
	if c.lock {
		c.store.mu.Lock()
		defer c.store.mu.Unlock()
	}
	return c.store.incrementStock(id, qty)
}

var _ domain.ProductCatalog = (*catalog)(nil)
