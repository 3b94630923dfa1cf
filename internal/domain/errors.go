package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyOrder возвращается при попытке провести заказ без позиций.
	ErrEmptyOrder = errors.New("order must contain at least one line")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар из позиции отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock возвращается, если запрошенное количество превышает остаток.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrPriceMismatch возвращается, если цена позиции расходится с текущей ценой каталога.
	ErrPriceMismatch = errors.New("line price does not match catalog price")
	// ErrReleaseInconsistency сигнализирует, что при снятии резерва товар не найден.
	// Это проблема целостности данных, а не штатный сценарий.
	ErrReleaseInconsistency = errors.New("release hit a missing product")
	// ErrClientNotFound возвращается, если ссылка заказа на клиента не резолвится.
	ErrClientNotFound = errors.New("client reference not found")
	// ErrTxConflict сигнализирует о конфликте конкурентных транзакций; операцию можно повторить.
	ErrTxConflict = errors.New("storage transaction conflict")

	// Ошибки инвариантов агрегата.
	ErrUserRequired       = errors.New("user_id is required")
	ErrProductIDRequired  = errors.New("product_id is required")
	ErrLineQtyInvalid     = errors.New("line qty must be non-negative")
	ErrLinePriceInvalid   = errors.New("line price must be non-negative")
	ErrStockNegative      = errors.New("product stock must be non-negative")
	ErrTotalMismatch      = errors.New("order total does not match lines sum")
	ErrTotalItemsMismatch = errors.New("order total_items does not match lines qty")
)

// ProductNotFoundError уточняет ErrProductNotFound идентификатором товара.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %q not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrProductNotFound }

// InsufficientStockError уточняет ErrInsufficientStock запрошенным и доступным количеством.
type InsufficientStockError struct {
	ProductID string
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// PriceMismatchError уточняет ErrPriceMismatch заявленной и актуальной ценой.
type PriceMismatchError struct {
	ProductID    string
	Submitted    int64
	CatalogMinor int64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch for product %q: submitted %d, catalog %d",
		e.ProductID, e.Submitted, e.CatalogMinor)
}

func (e *PriceMismatchError) Is(target error) bool { return target == ErrPriceMismatch }

// ReleaseInconsistencyError уточняет ErrReleaseInconsistency позицией, которую не удалось вернуть.
type ReleaseInconsistencyError struct {
	OrderID   string
	ProductID string
	Qty       int32
}

func (e *ReleaseInconsistencyError) Error() string {
	return fmt.Sprintf("release for order %q hit missing product %q (qty %d)",
		e.OrderID, e.ProductID, e.Qty)
}

func (e *ReleaseInconsistencyError) Is(target error) bool { return target == ErrReleaseInconsistency }

// IsConflict проверяет, является ли ошибка конфликтом конкурентных транзакций.
func IsConflict(err error) bool {
	return errors.Is(err, ErrTxConflict)
}

// IsDomainError сообщает, относится ли ошибка к бизнес-таксономии движка.
// Инфраструктурные сбои (I/O, сеть) в таксономию не входят и пробрасываются как есть.
func IsDomainError(err error) bool {
	for _, sentinel := range []error{
		ErrEmptyOrder,
		ErrOrderNotFound,
		ErrProductNotFound,
		ErrInsufficientStock,
		ErrPriceMismatch,
		ErrReleaseInconsistency,
		ErrClientNotFound,
		ErrUserRequired,
		ErrProductIDRequired,
		ErrLineQtyInvalid,
		ErrLinePriceInvalid,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
