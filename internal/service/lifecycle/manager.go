package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/metrics"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/reservation"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/validator"
)

const (
	// maxTxAttempts ограничивает retry при конфликтах хранилища,
	// чтобы не блокироваться под высокой конкуренцией.
	maxTxAttempts  = 3
	retryBaseDelay = 10 * time.Millisecond

	resultOK    = "ok"
	resultError = "error"
)

// LineInput — позиция заказа со слов клиента: товар, количество, заявленная цена.
type LineInput struct {
	ProductID      string
	Qty            int32
	UnitPriceMinor int64
}

// OrderInput — входные данные операций create/update.
type OrderInput struct {
	UserID    string
	ClientRef string
	Lines     []LineInput
}

// Manager оркестрирует жизненный цикл заказа: create/update/delete поверх
// валидатора и движка резервирования, внутри явной единицы работы.
// Кэш и EventSink — явные коллабораторы, внедряются при конструировании
// и вызываются вокруг путей чтения/записи; sink никогда не влияет на исход операции.
type Manager struct {
	tx        domain.TxManager
	orders    domain.OrderStore
	validator *validator.Validator
	engine    *reservation.Engine
	cache     domain.OrderCache
	clients   domain.ClientLookup
	events    domain.EventSink
	logger    *log.Entry
	metrics   *metrics.FulfillmentMetrics
}

// NewManager создаёт рабочий экземпляр менеджера.
// orders — autocommit-представление хранилища для путей чтения;
// мутации идут только через tx.
func NewManager(
	tx domain.TxManager,
	orders domain.OrderStore,
	checker *validator.Validator,
	engine *reservation.Engine,
	cache domain.OrderCache,
	clients domain.ClientLookup,
	events domain.EventSink,
	logger *log.Entry,
) *Manager {
	m := newManager(tx, orders, checker, engine, cache, clients, events, logger)
	m.metrics = metrics.NewFulfillmentMetrics()
	return m
}

// NewManagerWithoutMetrics создаёт менеджер без метрик (для тестов).
func NewManagerWithoutMetrics(
	tx domain.TxManager,
	orders domain.OrderStore,
	checker *validator.Validator,
	engine *reservation.Engine,
	cache domain.OrderCache,
	clients domain.ClientLookup,
	events domain.EventSink,
	logger *log.Entry,
) *Manager {
	return newManager(tx, orders, checker, engine, cache, clients, events, logger)
}

func newManager(
	tx domain.TxManager,
	orders domain.OrderStore,
	checker *validator.Validator,
	engine *reservation.Engine,
	cache domain.OrderCache,
	clients domain.ClientLookup,
	events domain.EventSink,
	logger *log.Entry,
) *Manager {
	if logger == nil {
		logger = log.WithField("component", "order-lifecycle")
	}
	if checker == nil {
		checker = validator.New(logger)
	}
	if engine == nil {
		engine = reservation.NewEngine(logger)
	}
	return &Manager{
		tx:        tx,
		orders:    orders,
		validator: checker,
		engine:    engine,
		cache:     cache,
		clients:   clients,
		events:    events,
		logger:    logger,
	}
}

// Create строит заказ из input, валидирует позиции, резервирует сток и сохраняет.
// Валидация и резервирование выполняются в одной единице работы: частично
// списанный сток не переживает ошибку.
func (m *Manager) Create(ctx context.Context, input OrderInput) (domain.Order, error) {
	start := time.Now()
	defer m.observeDuration("create", start)

	if input.UserID == "" {
		m.recordCreate(resultError)
		return domain.Order{}, domain.ErrUserRequired
	}
	if err := m.resolveClient(ctx, input.ClientRef); err != nil {
		m.recordCreate(resultError)
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		ClientRef: input.ClientRef,
		Lines:     linesFromInput(input.Lines),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := m.runTx(ctx, "create", func(ctx context.Context, uow domain.UnitOfWork) error {
		if err := m.validator.CheckOrder(ctx, uow.Products(), &order, nil); err != nil {
			return err
		}
		if err := m.engine.Reserve(ctx, uow.Products(), &order); err != nil {
			return err
		}
		return uow.Orders().Create(ctx, order)
	})
	if err != nil {
		m.recordCreate(resultError)
		return domain.Order{}, err
	}

	m.cachePut(ctx, order)
	m.notify(domain.ActionOrderCreated, order)
	m.recordCreate(resultOK)
	return order, nil
}

// Update заменяет набор позиций существующего заказа. Новые позиции валидируются
// против остатка "как если бы старые уже вернулись на сток", без мутации состояния;
// только после успешной валидации старый резерв снимается и ставится новый —
// всё в одной единице работы.
func (m *Manager) Update(ctx context.Context, id string, input OrderInput) (domain.Order, error) {
	start := time.Now()
	defer m.observeDuration("update", start)

	if err := m.resolveClient(ctx, input.ClientRef); err != nil {
		m.recordUpdate(resultError)
		return domain.Order{}, err
	}

	var updated domain.Order
	err := m.runTx(ctx, "update", func(ctx context.Context, uow domain.UnitOfWork) error {
		existing, err := uow.Orders().Get(ctx, id)
		if err != nil {
			return err
		}

		candidate := existing
		candidate.Lines = linesFromInput(input.Lines)
		if input.ClientRef != "" {
			candidate.ClientRef = input.ClientRef
		}

		if err := m.validator.CheckOrder(ctx, uow.Products(), &candidate, releaseCredit(existing.Lines)); err != nil {
			return err
		}
		if err := m.release(ctx, uow.Products(), &existing); err != nil {
			return err
		}
		if err := m.engine.Reserve(ctx, uow.Products(), &candidate); err != nil {
			return err
		}

		candidate.UpdatedAt = time.Now().UTC()
		if err := uow.Orders().Save(ctx, candidate); err != nil {
			return err
		}
		// Хранилище инкрементирует версию при сохранении.
		candidate.Version++
		updated = candidate
		return nil
	})
	if err != nil {
		m.recordUpdate(resultError)
		return domain.Order{}, err
	}

	m.cachePut(ctx, updated)
	m.notify(domain.ActionOrderUpdated, updated)
	m.recordUpdate(resultOK)
	return updated, nil
}

// Delete снимает резерв по позициям заказа и удаляет его из хранилища.
func (m *Manager) Delete(ctx context.Context, id string) error {
	start := time.Now()
	defer m.observeDuration("delete", start)

	var removed domain.Order
	err := m.runTx(ctx, "delete", func(ctx context.Context, uow domain.UnitOfWork) error {
		existing, err := uow.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := m.release(ctx, uow.Products(), &existing); err != nil {
			return err
		}
		if err := uow.Orders().Delete(ctx, existing); err != nil {
			return err
		}
		removed = existing
		return nil
	})
	if err != nil {
		m.recordDelete(resultError)
		return err
	}

	m.cacheEvict(ctx, id)
	m.notify(domain.ActionOrderDeleted, removed)
	m.recordDelete(resultOK)
	return nil
}

// FindByID возвращает заказ, проходя через кэш.
func (m *Manager) FindByID(ctx context.Context, id string) (domain.Order, error) {
	if m.cache != nil {
		if order, ok := m.cache.Get(ctx, id); ok {
			if m.metrics != nil {
				m.metrics.RecordCacheHit()
			}
			return order, nil
		}
		if m.metrics != nil {
			m.metrics.RecordCacheMiss()
		}
	}

	order, err := m.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	m.cachePut(ctx, order)
	return order, nil
}

// FindAll возвращает страницу заказов по критериям query. Бизнес-логики нет.
func (m *Manager) FindAll(ctx context.Context, query domain.ListQuery) (domain.Page, error) {
	return m.orders.List(ctx, query)
}

// FindByUserID возвращает страницу заказов одного пользователя.
func (m *Manager) FindByUserID(ctx context.Context, userID string, offset, limit int) (domain.Page, error) {
	return m.orders.List(ctx, domain.ListQuery{
		Criteria: []domain.Criterion{domain.ByUser(userID)},
		Offset:   offset,
		Limit:    limit,
	})
}

// release снимает резерв, трактуя ReleaseInconsistency как нефатальное предупреждение:
// операция продолжается, расхождение логируется и считается в метриках.
func (m *Manager) release(ctx context.Context, catalog domain.ProductCatalog, order *domain.Order) error {
	err := m.engine.Release(ctx, catalog, order)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrReleaseInconsistency) {
		m.logger.WithError(err).WithField("order_id", order.ID).Warn("release reported inconsistency")
		if m.metrics != nil {
			m.metrics.RecordReleaseInconsistency()
		}
		return nil
	}
	return err
}

// runTx исполняет fn в единице работы с bounded retry на конфликтах:
// не более maxTxAttempts попыток с экспоненциальным backoff и джиттером.
// Бизнес-ошибки не повторяются.
func (m *Manager) runTx(ctx context.Context, op string, fn func(ctx context.Context, uow domain.UnitOfWork) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = m.tx.WithinTx(ctx, fn)
		if err == nil || !domain.IsConflict(err) {
			return err
		}

		if m.metrics != nil {
			m.metrics.RecordTxConflict()
		}
		if attempt == maxTxAttempts-1 {
			break
		}
		if m.metrics != nil {
			m.metrics.RecordRetryAttempt()
		}
		m.logger.WithFields(log.Fields{
			"op":      op,
			"attempt": attempt + 1,
		}).Warn("storage conflict, retrying")

		delay := retryBaseDelay * time.Duration(1<<uint(attempt))
		delay += time.Duration(rand.Int63n(int64(delay)))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s: retries exhausted: %w", op, err)
}

func (m *Manager) resolveClient(ctx context.Context, ref string) error {
	if m.clients == nil || ref == "" {
		return nil
	}
	if _, err := m.clients.Resolve(ctx, ref); err != nil {
		return err
	}
	return nil
}

// orderPayload — снимок заказа в полезной нагрузке уведомления.
type orderPayload struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	TotalMinor int64  `json:"total_minor"`
	TotalItems int32  `json:"total_items"`
	LineCount  int    `json:"line_count"`
}

func (m *Manager) notify(action string, order domain.Order) {
	if m.events == nil {
		return
	}

	payload, err := json.Marshal(orderPayload{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalMinor: order.TotalMinor,
		TotalItems: order.TotalItems,
		LineCount:  len(order.Lines),
	})
	if err != nil {
		m.logger.WithError(err).WithField("order_id", order.ID).Error("marshal notification failed")
		return
	}

	m.events.Notify(domain.Notification{
		EntityType: domain.NotificationEntityOrder,
		Action:     action,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	})
}

func (m *Manager) cachePut(ctx context.Context, order domain.Order) {
	if m.cache != nil {
		m.cache.Put(ctx, order)
	}
}

func (m *Manager) cacheEvict(ctx context.Context, id string) {
	if m.cache != nil {
		m.cache.Evict(ctx, id)
	}
}

func (m *Manager) observeDuration(op string, start time.Time) {
	if m.metrics != nil {
		m.metrics.RecordOperationDuration(op, time.Since(start))
	}
}

func (m *Manager) recordCreate(result string) {
	if m.metrics != nil {
		m.metrics.RecordCreate(result)
	}
}

func (m *Manager) recordUpdate(result string) {
	if m.metrics != nil {
		m.metrics.RecordUpdate(result)
	}
}

func (m *Manager) recordDelete(result string) {
	if m.metrics != nil {
		m.metrics.RecordDelete(result)
	}
}

func linesFromInput(inputs []LineInput) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, domain.OrderLine{
			ProductID:      in.ProductID,
			Qty:            in.Qty,
			UnitPriceMinor: in.UnitPriceMinor,
		})
	}
	return lines
}

// releaseCredit собирает количества старых позиций: на эти величины остаток
// считается доступным при валидации нового набора.
func releaseCredit(lines []domain.OrderLine) map[string]int32 {
	credit := make(map[string]int32, len(lines))
	for _, line := range lines {
		credit[line.ProductID] += line.Qty
	}
	return credit
}
