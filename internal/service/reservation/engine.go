package reservation

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// Engine конвертирует проверенный набор позиций в движения стока и итоги заказа.
// Только Engine мутирует остатки товаров; все мутации выполняются через каталог,
// привязанный к единице работы вызывающего, поэтому частичное резервирование
// откатывается целиком вместе с транзакцией.
type Engine struct {
	logger *log.Entry
}

// NewEngine создаёт движок резервирования.
func NewEngine(logger *log.Entry) *Engine {
	if logger == nil {
		logger = log.WithField("component", "reservation-engine")
	}
	return &Engine{logger: logger}
}

// Reserve списывает сток по каждой позиции и вычисляет итоги заказа.
// Списание условное: при нехватке остатка возвращается *InsufficientStockError,
// и вызывающий обязан откатить единицу работы — уже применённые списания
// не должны пережить ошибку.
//
// Заказ мутируется (line.TotalMinor, TotalMinor, TotalItems), но не сохраняется:
// персистентность — ответственность вызывающего.
func (e *Engine) Reserve(ctx context.Context, catalog domain.ProductCatalog, order *domain.Order) error {
	if order == nil || len(order.Lines) == 0 {
		return domain.ErrEmptyOrder
	}

	var totalMinor int64
	var totalItems int32
	for i := range order.Lines {
		line := &order.Lines[i]
		if line.Qty > 0 {
			if err := catalog.DecrementStock(ctx, line.ProductID, line.Qty); err != nil {
				return fmt.Errorf("reserve line %d: %w", i, err)
			}
		}
		line.TotalMinor = int64(line.Qty) * line.UnitPriceMinor
		totalMinor += line.TotalMinor
		totalItems += line.Qty
	}

	order.TotalMinor = totalMinor
	order.TotalItems = totalItems
	return nil
}

// Release возвращает на сток количества, записанные в позициях заказа.
// Отсутствующий товар — не штатный no-op, а признак проблемы целостности:
// такие позиции логируются и агрегируются в ReleaseInconsistencyError,
// остальные позиции при этом освобождаются.
func (e *Engine) Release(ctx context.Context, catalog domain.ProductCatalog, order *domain.Order) error {
	if order == nil || len(order.Lines) == 0 {
		return nil
	}

	var inconsistencies []error
	for i := range order.Lines {
		line := order.Lines[i]
		if line.Qty <= 0 {
			continue
		}
		err := catalog.IncrementStock(ctx, line.ProductID, line.Qty)
		if err == nil {
			continue
		}
		if errors.Is(err, domain.ErrProductNotFound) {
			e.logger.WithFields(log.Fields{
				"order_id":   order.ID,
				"product_id": line.ProductID,
				"qty":        line.Qty,
			}).Warn("release hit missing product")
			inconsistencies = append(inconsistencies, &domain.ReleaseInconsistencyError{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Qty:       line.Qty,
			})
			continue
		}
		return fmt.Errorf("release line %d: %w", i, err)
	}

	return errors.Join(inconsistencies...)
}
