package domain

import "context"

// CriterionKind перечисляет поддерживаемые критерии фильтрации списка заказов.
type CriterionKind int

const (
	// CriterionByUser ограничивает выборку заказами одного пользователя.
	CriterionByUser CriterionKind = iota + 1
	// CriterionIncludeDeleted включает в выборку логически удалённые заказы.
	CriterionIncludeDeleted
)

// Criterion — тегированный критерий фильтрации с полезной нагрузкой.
type Criterion struct {
	Kind   CriterionKind
	UserID string
}

// ByUser возвращает критерий фильтрации по владельцу заказа.
func ByUser(userID string) Criterion {
	return Criterion{Kind: CriterionByUser, UserID: userID}
}

// IncludeDeleted возвращает критерий, включающий удалённые заказы в выборку.
func IncludeDeleted() Criterion {
	return Criterion{Kind: CriterionIncludeDeleted}
}

// ListQuery описывает страницу выборки и набор критериев.
type ListQuery struct {
	Criteria []Criterion
	Offset   int
	Limit    int
}

// ForUser сообщает, задан ли критерий пользователя, и возвращает его значение.
func (q ListQuery) ForUser() (string, bool) {
	for _, c := range q.Criteria {
		if c.Kind == CriterionByUser {
			return c.UserID, true
		}
	}
	return "", false
}

// WithDeleted сообщает, включены ли удалённые заказы в выборку.
func (q ListQuery) WithDeleted() bool {
	for _, c := range q.Criteria {
		if c.Kind == CriterionIncludeDeleted {
			return true
		}
	}
	return false
}

// Page — страница заказов с общим количеством под пагинацию вызывающего слоя.
type Page struct {
	Orders []Order
	Total  int
	Offset int
	Limit  int
}

// OrderStore описывает требования к хранилищу агрегата Order.
type OrderStore interface {
	// Create сохраняет новый заказ. Возвращает ErrTxConflict, если ID уже занят.
	Create(ctx context.Context, order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// List возвращает страницу заказов по критериям query.
	List(ctx context.Context, query ListQuery) (Page, error)
	// Save применяет обновления к заказу с учётом optimistic locking:
	// при несовпадении версии возвращает ErrTxConflict.
	Save(ctx context.Context, order Order) error
	// Delete удаляет заказ из хранилища.
	Delete(ctx context.Context, order Order) error
}
