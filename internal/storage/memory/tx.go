package memory

import (
	"context"
	"maps"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// txManager реализует domain.TxManager поверх in-memory хранилища.
type txManager struct {
	store *Store
}

// session — единица работы: репозитории работают без собственных блокировок,
// блокировку на всё время транзакции держит WithinTx.
type session struct {
	store *Store
}

func (s *session) Products() domain.ProductCatalog {
	return &catalog{store: s.store}
}

func (s *session) Orders() domain.OrderStore {
	return &orderStore{store: s.store}
}

// WithinTx исполняет fn под блокировкой хранилища. Ошибка из fn восстанавливает
// снапшот товаров и заказов, так что частично применённые списания стока
// не переживают неудачную операцию.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context, uow domain.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	productsSnap := maps.Clone(m.store.products)
	ordersSnap := maps.Clone(m.store.orders)

	if err := fn(ctx, &session{store: m.store}); err != nil {
		m.store.products = productsSnap
		m.store.orders = ordersSnap
		return err
	}
	return nil
}

var (
	_ domain.TxManager  = (*txManager)(nil)
	_ domain.UnitOfWork = (*session)(nil)
)
