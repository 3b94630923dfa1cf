package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ProductCatalog описывает доступ к каталогу товаров.
// Мутации стока выражены условными атомарными операциями: реализация против
// реального хранилища обязана сериализовать конкурентные изменения на уровне
// строки товара, а не глобальной блокировкой.
type ProductCatalog interface {
	// FindByID возвращает товар или ErrProductNotFound.
	FindByID(ctx context.Context, id string) (Product, error)
	// Save сохраняет изменённый товар (цена, сток).
	Save(ctx context.Context, product Product) error
	// DecrementStock условно уменьшает остаток: stock = stock - qty при stock >= qty.
	// При нехватке возвращает *InsufficientStockError, при отсутствии товара —
	// *ProductNotFoundError.
	DecrementStock(ctx context.Context, id string, qty int32) error
	// IncrementStock возвращает qty единиц на остаток.
	IncrementStock(ctx context.Context, id string, qty int32) error
}

// UnitOfWork даёт доступ к репозиториям, привязанным к одной транзакции.
// Все изменения, сделанные через него, фиксируются или откатываются целиком.
type UnitOfWork interface {
	Products() ProductCatalog
	Orders() OrderStore
}

// TxManager исполняет функцию внутри одной единицы работы.
// Ошибка из fn откатывает все изменения; конфликт сериализации
// транслируется в ErrTxConflict, чтобы вызывающий мог повторить попытку.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// Client — результат резолва непрозрачной клиентской ссылки заказа.
type Client struct {
	Ref  string
	Name string
}

// ClientLookup резолвит клиентскую ссылку заказа. Только чтение.
type ClientLookup interface {
	// Resolve возвращает клиента или ErrClientNotFound.
	Resolve(ctx context.Context, ref string) (Client, error)
}

// Notification — структурированное уведомление о событии жизненного цикла заказа.
type Notification struct {
	EntityType string          `json:"entity_type"`
	Action     string          `json:"action"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Действия, публикуемые менеджером жизненного цикла.
const (
	NotificationEntityOrder = "order"

	ActionOrderCreated = "order.created"
	ActionOrderUpdated = "order.updated"
	ActionOrderDeleted = "order.deleted"
)

// EventSink принимает уведомления fire-and-forget: доставка не блокирует
// операцию над заказом и не участвует в её транзакции, сбои доставки
// логируются самим sink и никогда не всплывают к вызывающему.
type EventSink interface {
	Notify(notification Notification)
}

// OrderCache — явный кэш заказов вокруг путей чтения/записи.
type OrderCache interface {
	Get(ctx context.Context, id string) (Order, bool)
	Put(ctx context.Context, order Order)
	Evict(ctx context.Context, id string)
}
