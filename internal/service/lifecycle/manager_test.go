package lifecycle

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/storage/memory"
)

type stubSink struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (s *stubSink) Notify(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

func (s *stubSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.notifications))
	for _, n := range s.notifications {
		actions = append(actions, n.Action)
	}
	return actions
}

type stubCache struct {
	mu     sync.Mutex
	items  map[string]domain.Order
	evicts int
}

func newStubCache() *stubCache {
	return &stubCache{items: make(map[string]domain.Order)}
}

func (c *stubCache) Get(_ context.Context, id string) (domain.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	order, ok := c.items[id]
	return order, ok
}

func (c *stubCache) Put(_ context.Context, order domain.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[order.ID] = order
}

func (c *stubCache) Evict(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.evicts++
}

type stubClients struct {
	known map[string]bool
}

func (c *stubClients) Resolve(_ context.Context, ref string) (domain.Client, error) {
	if c.known[ref] {
		return domain.Client{Ref: ref, Name: "client " + ref}, nil
	}
	return domain.Client{}, domain.ErrClientNotFound
}

type fixture struct {
	store   *memory.Store
	sink    *stubSink
	cache   *stubCache
	manager *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.SeedProduct(domain.Product{ID: "product-1", PriceMinor: 1000, Stock: 5})
	store.SeedProduct(domain.Product{ID: "product-2", PriceMinor: 250, Stock: 10})

	sink := &stubSink{}
	cache := newStubCache()
	clients := &stubClients{known: map[string]bool{"client-1": true}}

	manager := NewManagerWithoutMetrics(
		store.TxManager(),
		store.Orders(),
		nil,
		nil,
		cache,
		clients,
		sink,
		nil,
	)

	return &fixture{store: store, sink: sink, cache: cache, manager: manager}
}

func (f *fixture) stockOf(t *testing.T, id string) int32 {
	t.Helper()

	product, err := f.store.Catalog().FindByID(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

// Сценарий A: сток 5, цена 10.00; заказ 2 шт по 10.00.
func TestCreateReservesStockAndComputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.manager.Create(ctx, OrderInput{
		UserID:    "user-1",
		ClientRef: "client-1",
		Lines: []LineInput{
			{ProductID: "product-1", Qty: 2, UnitPriceMinor: 1000},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(3), f.stockOf(t, "product-1"))
	assert.Equal(t, int64(2000), order.Lines[0].TotalMinor)
	assert.Equal(t, int64(2000), order.TotalMinor)
	assert.Equal(t, int32(2), order.TotalItems)
	assert.False(t, order.CreatedAt.IsZero())
	assert.Equal(t, order.CreatedAt, order.UpdatedAt)

	// Заказ сохранён, закэширован и породил уведомление.
	persisted, err := f.store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalMinor, persisted.TotalMinor)
	_, cached := f.cache.Get(ctx, order.ID)
	assert.True(t, cached)
	assert.Equal(t, []string{domain.ActionOrderCreated}, f.sink.actions())
}

func TestCreateFailures(t *testing.T) {
	cases := []struct {
		name     string
		input    OrderInput
		sentinel error
	}{
		{
			name:     "empty order",
			input:    OrderInput{UserID: "user-1"},
			sentinel: domain.ErrEmptyOrder,
		},
		{
			name:     "no user",
			input:    OrderInput{Lines: []LineInput{{ProductID: "product-1", Qty: 1, UnitPriceMinor: 1000}}},
			sentinel: domain.ErrUserRequired,
		},
		{
			name: "unknown client ref",
			input: OrderInput{
				UserID:    "user-1",
				ClientRef: "client-unknown",
				Lines:     []LineInput{{ProductID: "product-1", Qty: 1, UnitPriceMinor: 1000}},
			},
			sentinel: domain.ErrClientNotFound,
		},
		{
			name: "negative qty",
			input: OrderInput{
				UserID: "user-1",
				Lines:  []LineInput{{ProductID: "product-1", Qty: -2, UnitPriceMinor: 1000}},
			},
			sentinel: domain.ErrLineQtyInvalid,
		},
		{
			name: "missing product",
			input: OrderInput{
				UserID: "user-1",
				Lines:  []LineInput{{ProductID: "missing", Qty: 1, UnitPriceMinor: 1000}},
			},
			sentinel: domain.ErrProductNotFound,
		},
		{
			name: "insufficient stock",
			input: OrderInput{
				UserID: "user-1",
				Lines:  []LineInput{{ProductID: "product-1", Qty: 6, UnitPriceMinor: 1000}},
			},
			sentinel: domain.ErrInsufficientStock,
		},
		{
			name: "price mismatch",
			input: OrderInput{
				UserID: "user-1",
				Lines:  []LineInput{{ProductID: "product-1", Qty: 1, UnitPriceMinor: 999}},
			},
			sentinel: domain.ErrPriceMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.manager.Create(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.sentinel)

			// Сток не тронут, заказ не сохранён, уведомлений нет.
			assert.Equal(t, int32(5), f.stockOf(t, "product-1"))
			page, listErr := f.manager.FindAll(context.Background(), domain.ListQuery{})
			require.NoError(t, listErr)
			assert.Empty(t, page.Orders)
			assert.Empty(t, f.sink.actions())
		})
	}
}

// Сценарий B: удаление возвращает ровно зарезервированные количества.
func TestDeleteReleasesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.manager.Create(ctx, OrderInput{
		UserID: "user-1",
		Lines: []LineInput{
			{ProductID: "product-1", Qty: 2, UnitPriceMinor: 1000},
			{ProductID: "product-2", Qty: 3, UnitPriceMinor: 250},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int32(3), f.stockOf(t, "product-1"))
	require.Equal(t, int32(7), f.stockOf(t, "product-2"))

	require.NoError(t, f.manager.Delete(ctx, order.ID))

	assert.Equal(t, int32(5), f.stockOf(t, "product-1"))
	assert.Equal(t, int32(10), f.stockOf(t, "product-2"))
	_, err = f.store.Orders().Get(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, cached := f.cache.Get(ctx, order.ID)
	assert.False(t, cached)
	assert.Equal(t, []string{domain.ActionOrderCreated, domain.ActionOrderDeleted}, f.sink.actions())
}

func TestDeleteUnknownOrder(t *testing.T) {
	f := newFixture(t)
	err := f.manager.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// Сценарий D: update с qty 2 -> 4 при остатке 3 проходит за счёт
// учёта возвращаемых позиций (эффективная доступность 5).
func TestUpdateValidatesAgainstAsIfReleasedView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.manager.Create(ctx, OrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Qty: 2, UnitPriceMinor: 1000}},
	})
	require.NoError(t, err)
	require.Equal(t, int32(3), f.stockOf(t, "product-1"))

	updated, err := f.manager.Update(ctx, order.ID, OrderInput{
		Lines: []LineInput{{ProductID: "product-1", Qty: 4, UnitPriceMinor: 1000}},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.stockOf(t, "product-1"))
	assert.Equal(t, int64(4000), updated.TotalMinor)
	assert.Equal(t, int32(4), updated.TotalItems)
	assert.True(t, updated.UpdatedAt.After(order.UpdatedAt) || updated.UpdatedAt.Equal(order.UpdatedAt))
	assert.Equal(t, []string{domain.ActionOrderCreated, domain.ActionOrderUpdated}, f.sink.actions())
}

// Невалидный новый набор позиций не трогает ни сток, ни прежний резерв.
func TestUpdateFailureLeavesOldReservationIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.manager.Create(ctx, OrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Qty: 2, UnitPriceMinor: 1000}},
	})
	require.NoError(t, err)

	_, err = f.manager.Update(ctx, order.ID, OrderInput{
		Lines: []LineInput{{ProductID: "product-1", Qty: 6, UnitPriceMinor: 1000}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Старый резерв на месте, заказ не изменился.
	assert.Equal(t, int32(3), f.stockOf(t, "product-1"))
	persisted, err := f.store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), persisted.TotalItems)
}

func TestUpdateUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.Update(context.Background(), "missing", OrderInput{
		Lines: []LineInput{{ProductID: "product-1", Qty: 1, UnitPriceMinor: 1000}},
	})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// Сценарий C: сток 5, два конкурентных заказа по 3 — ровно один проходит,
// итоговый остаток 2, в минус не уходим.
func TestConcurrentCreateNeverOversells(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.manager.Create(ctx, OrderInput{
				UserID: "user-1",
				Lines:  []LineInput{{ProductID: "product-1", Qty: 3, UnitPriceMinor: 1000}},
			})
		}(i)
	}
	wg.Wait()

	var okCount, stockErrCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		default:
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			stockErrCount++
		}
	}
	require.Equal(t, 1, okCount, "exactly one create must succeed")
	require.Equal(t, 1, stockErrCount, "the other must fail with insufficient stock")
	assert.Equal(t, int32(2), f.stockOf(t, "product-1"))
}

func TestFindByIDUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.manager.Create(ctx, OrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Qty: 1, UnitPriceMinor: 1000}},
	})
	require.NoError(t, err)

	// Попадание в кэш.
	found, err := f.manager.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	// Промах после evict подтягивает из хранилища и снова кэширует.
	f.cache.Evict(ctx, order.ID)
	found, err = f.manager.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	_, cached := f.cache.Get(ctx, order.ID)
	assert.True(t, cached)

	_, err = f.manager.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestFindByUserID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.manager.Create(ctx, OrderInput{
			UserID: "user-1",
			Lines:  []LineInput{{ProductID: "product-2", Qty: 1, UnitPriceMinor: 250}},
		})
		require.NoError(t, err)
	}
	_, err := f.manager.Create(ctx, OrderInput{
		UserID: "user-2",
		Lines:  []LineInput{{ProductID: "product-2", Qty: 1, UnitPriceMinor: 250}},
	})
	require.NoError(t, err)

	page, err := f.manager.FindByUserID(ctx, "user-1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Orders, 2)

	page, err = f.manager.FindAll(ctx, domain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
}
