package domain

import "time"

// OrderLine представляет одну позицию заказа: товар, количество и цена.
type OrderLine struct {
	// ProductID — идентификатор товара в каталоге.
	ProductID string
	// Qty — запрошенное количество единиц товара (>= 0).
	Qty int32
	// UnitPriceMinor — цена за единицу в минимальных денежных единицах (например, копейки).
	// Должна совпадать с текущей ценой каталога на момент валидации.
	UnitPriceMinor int64
	// TotalMinor — вычисленная стоимость позиции: Qty * UnitPriceMinor.
	// Заполняется движком резервирования, не клиентом.
	TotalMinor int64
}

// Order агрегирует заявку пользователя на покупку и её вычисленные итоги.
type Order struct {
	ID string
	// UserID — владелец заказа.
	UserID string
	// ClientRef — непрозрачная ссылка на клиента; принадлежит внешней системе,
	// здесь только резолвится через ClientLookup.
	ClientRef string
	// Lines — позиции заказа в порядке подачи (порядок значим для валидации).
	Lines []OrderLine
	// TotalItems — сумма количеств по всем позициям.
	TotalItems int32
	// TotalMinor — сумма Qty * UnitPriceMinor по всем позициям.
	TotalMinor int64
	// Version используется для optimistic locking при сохранении.
	Version   int64
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LinesTotal возвращает сумму Qty * UnitPriceMinor по позициям заказа.
func (o *Order) LinesTotal() int64 {
	var sum int64
	for _, line := range o.Lines {
		sum += int64(line.Qty) * line.UnitPriceMinor
	}
	return sum
}

// LinesQty возвращает суммарное количество единиц по позициям заказа.
func (o *Order) LinesQty() int32 {
	var sum int32
	for _, line := range o.Lines {
		sum += line.Qty
	}
	return sum
}

// ValidateInvariants проверяет базовые инварианты агрегата и возвращает список замечаний.
// Итоги сверяются с позициями: после успешного резервирования расхождений быть не должно.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrEmptyOrder)
	}
	for _, line := range o.Lines {
		if line.ProductID == "" {
			errs = append(errs, ErrProductIDRequired)
		}
		if line.Qty < 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.UnitPriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
	}
	if o.TotalMinor != o.LinesTotal() {
		errs = append(errs, ErrTotalMismatch)
	}
	if o.TotalItems != o.LinesQty() {
		errs = append(errs, ErrTotalItemsMismatch)
	}

	return errs
}
