package validator

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// Validator выполняет read-only проверку позиций заказа против каталога.
// Побочных эффектов нет: сток не меняется, товары не сохраняются.
type Validator struct {
	logger *log.Entry
}

// New создаёт валидатор заказов.
func New(logger *log.Entry) *Validator {
	if logger == nil {
		logger = log.WithField("component", "order-validator")
	}
	return &Validator{logger: logger}
}

// CheckOrder проверяет согласованность позиций заказа с текущим состоянием каталога:
// неотрицательность количества, существование товара, достаточность остатка,
// совпадение цены. Проверка останавливается на первой невалидной позиции
// в порядке подачи.
//
// releaseCredit — количества, которые будут возвращены на сток до резервирования
// (старые позиции при update): остаток оценивается так, как если бы они уже были
// освобождены, без мутации состояния.
func (v *Validator) CheckOrder(ctx context.Context, catalog domain.ProductCatalog, order *domain.Order, releaseCredit map[string]int32) error {
	if order == nil || len(order.Lines) == 0 {
		return domain.ErrEmptyOrder
	}

	for _, line := range order.Lines {
		if line.Qty < 0 {
			return domain.ErrLineQtyInvalid
		}

		product, err := catalog.FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return &domain.ProductNotFoundError{ProductID: line.ProductID}
			}
			return err
		}

		available := product.Stock + releaseCredit[line.ProductID]
		if line.Qty > 0 && available < line.Qty {
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Qty,
				Available: available,
			}
		}
		if product.PriceMinor != line.UnitPriceMinor {
			return &domain.PriceMismatchError{
				ProductID:    line.ProductID,
				Submitted:    line.UnitPriceMinor,
				CatalogMinor: product.PriceMinor,
			}
		}
	}

	return nil
}
