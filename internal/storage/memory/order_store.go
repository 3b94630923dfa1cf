package memory

import (
	"context"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// orderStore — представление хранилища заказов поверх Store.
type orderStore struct {
	store *Store
	lock  bool
}

func (r *orderStore) Create(_ context.Context, order domain.Order) error {
	if r.lock {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	return r.store.createOrder(order)
}

func (r *orderStore) Get(_ context.Context, id string) (domain.Order, error) {
	if r.lock {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	return r.store.getOrder(id)
}

func (r *orderStore) List(_ context.Context, query domain.ListQuery) (domain.Page, error) {
	if r.lock {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	return r.store.listOrders(query)
}

func (r *orderStore) Save(_ context.Context, order domain.Order) error {
	if r.lock {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	return r.store.saveOrder(order)
}

func (r *orderStore) Delete(_ context.Context, order domain.Order) error {
	if r.lock {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	return r.store.deleteOrder(order)
}

var _ domain.OrderStore = (*orderStore)(nil)
