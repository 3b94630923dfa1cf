package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics содержит метрики операций над заказами.
type FulfillmentMetrics struct {
	// Счётчики операций жизненного цикла
	ordersCreated *prometheus.CounterVec
	ordersUpdated *prometheus.CounterVec
	ordersDeleted *prometheus.CounterVec

	// Гистограмма времени выполнения операций
	operationDuration *prometheus.HistogramVec

	// Конфликты при резервировании и retry-попытки
	txConflicts   prometheus.Counter
	retryAttempts prometheus.Counter

	// Расхождения целостности при снятии резерва
	releaseInconsistencies prometheus.Counter

	// Кэш заказов
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewFulfillmentMetrics создаёт метрики на default registerer.
func NewFulfillmentMetrics() *FulfillmentMetrics {
	return newFulfillmentMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newFulfillmentMetricsWithRegisterer(registerer prometheus.Registerer) *FulfillmentMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &FulfillmentMetrics{
		ordersCreated: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "fulfillment_orders_created_total",
			Help: "Total number of order create operations grouped by result.",
		}, []string{"result"}),
		ordersUpdated: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "fulfillment_orders_updated_total",
			Help: "Total number of order update operations grouped by result.",
		}, []string{"result"}),
		ordersDeleted: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "fulfillment_orders_deleted_total",
			Help: "Total number of order delete operations grouped by result.",
		}, []string{"result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "fulfillment_operation_duration_seconds",
			Help:    "Duration of order lifecycle operations in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"op"}),
		txConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fulfillment_tx_conflicts_total",
			Help: "Total number of storage conflicts hit while reserving stock.",
		}),
		retryAttempts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fulfillment_retry_attempts_total",
			Help: "Total number of retry attempts after storage conflicts.",
		}),
		releaseInconsistencies: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fulfillment_release_inconsistencies_total",
			Help: "Total number of release operations that hit a missing product.",
		}),
		cacheHits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fulfillment_order_cache_hits_total",
			Help: "Total number of order cache hits.",
		}),
		cacheMisses: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fulfillment_order_cache_misses_total",
			Help: "Total number of order cache misses.",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCreate фиксирует исход операции создания заказа.
func (m *FulfillmentMetrics) RecordCreate(result string) {
	m.ordersCreated.WithLabelValues(result).Inc()
}

// RecordUpdate фиксирует исход операции обновления заказа.
func (m *FulfillmentMetrics) RecordUpdate(result string) {
	m.ordersUpdated.WithLabelValues(result).Inc()
}

// RecordDelete фиксирует исход операции удаления заказа.
func (m *FulfillmentMetrics) RecordDelete(result string) {
	m.ordersDeleted.WithLabelValues(result).Inc()
}

// RecordOperationDuration записывает время выполнения операции op.
func (m *FulfillmentMetrics) RecordOperationDuration(op string, duration time.Duration) {
	m.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordTxConflict увеличивает счётчик конфликтов хранилища.
func (m *FulfillmentMetrics) RecordTxConflict() {
	m.txConflicts.Inc()
}

// RecordRetryAttempt увеличивает счётчик retry-попыток.
func (m *FulfillmentMetrics) RecordRetryAttempt() {
	m.retryAttempts.Inc()
}

// RecordReleaseInconsistency увеличивает счётчик расхождений при снятии резерва.
func (m *FulfillmentMetrics) RecordReleaseInconsistency() {
	m.releaseInconsistencies.Inc()
}

// RecordCacheHit увеличивает счётчик попаданий в кэш заказов.
func (m *FulfillmentMetrics) RecordCacheHit() {
	m.cacheHits.Inc()
}

// RecordCacheMiss увеличивает счётчик промахов кэша заказов.
func (m *FulfillmentMetrics) RecordCacheMiss() {
	m.cacheMisses.Inc()
}
