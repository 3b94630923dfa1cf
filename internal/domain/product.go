package domain

import "time"

// Product описывает товар каталога, на который ссылаются позиции заказа.
// Сток товара меняется исключительно движком резервирования.
type Product struct {
	ID string
	// PriceMinor — текущая цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// Stock — доступный остаток на складе. Инвариант: никогда не уходит в минус
	// после успешного резервирования.
	Stock     int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет, корректно ли заполнены ключевые поля товара.
func (p *Product) Validate() []error {
	var errs []error

	if p.ID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrLinePriceInvalid)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}

	return errs
}
