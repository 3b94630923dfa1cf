package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// Store — in-memory хранилище товаров и заказов для локальной разработки и тестов.
// Единица работы берёт блокировку на всё хранилище и снимает снапшот состояния,
// поэтому откат здесь честный, но грубый; point-in-time сериализация по строке
// товара — свойство PostgreSQL-реализации.
type Store struct {
	mu       sync.Mutex
	products map[string]domain.Product
	orders   map[string]domain.Order
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		products: make(map[string]domain.Product),
		orders:   make(map[string]domain.Order),
	}
}

// SeedProduct кладёт товар в каталог напрямую, минуя движок резервирования.
// Используется при старте dev-окружения и в тестах.
func (s *Store) SeedProduct(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
}

// Catalog возвращает autocommit-представление каталога (блокировка на операцию).
func (s *Store) Catalog() domain.ProductCatalog {
	return &catalog{store: s, lock: true}
}

// Orders возвращает autocommit-представление хранилища заказов.
func (s *Store) Orders() domain.OrderStore {
	return &orderStore{store: s, lock: true}
}

// TxManager возвращает менеджер единиц работы поверх этого хранилища.
func (s *Store) TxManager() domain.TxManager {
	return &txManager{store: s}
}

// cloneOrder копирует заказ вместе с позициями, чтобы избежать
// непредсказуемых мутаций извне через разделяемый slice.
func cloneOrder(order domain.Order) domain.Order {
	if order.Lines != nil {
		lines := make([]domain.OrderLine, len(order.Lines))
		copy(lines, order.Lines)
		order.Lines = lines
	}
	return order
}

// Операции ниже выполняются под s.mu вызывающего.

func (s *Store) getProduct(id string) (domain.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, &domain.ProductNotFoundError{ProductID: id}
	}
	return product, nil
}

func (s *Store) saveProduct(product domain.Product) {
	s.products[product.ID] = product
}

func (s *Store) decrementStock(id string, qty int32) error {
	product, ok := s.products[id]
	if !ok {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	if product.Stock < qty {
		return &domain.InsufficientStockError{
			ProductID: id,
			Requested: qty,
			Available: product.Stock,
		}
	}
	product.Stock -= qty
	s.products[id] = product
	return nil
}

func (s *Store) incrementStock(id string, qty int32) error {
	product, ok := s.products[id]
	if !ok {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	product.Stock += qty
	s.products[id] = product
	return nil
}

func (s *Store) createOrder(order domain.Order) error {
	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrTxConflict
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *Store) getOrder(id string) (domain.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) listOrders(query domain.ListQuery) (domain.Page, error) {
	userID, byUser := query.ForUser()
	withDeleted := query.WithDeleted()

	matched := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if byUser && order.UserID != userID {
			continue
		}
		if order.IsDeleted && !withDeleted {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	page := domain.Page{
		Total:  len(matched),
		Offset: query.Offset,
		Limit:  query.Limit,
	}
	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[query.Offset:]
		}
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	page.Orders = matched

	return page, nil
}

func (s *Store) saveOrder(order domain.Order) error {
	current, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrTxConflict
	}
	// Инкрементируем версию перед сохранением (optimistic locking).
	order.Version++
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *Store) deleteOrder(order domain.Order) error {
	if _, ok := s.orders[order.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(s.orders, order.ID)
	return nil
}
