package events

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

const defaultBufferSize = 256

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_events_published_total",
		Help: "Total number of notification publish attempts grouped by result.",
	}, []string{"result"})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_events_dropped_total",
		Help: "Total number of notifications dropped due to a full buffer.",
	})
)

// Publisher доставляет сериализуемое событие во внешний транспорт.
type Publisher interface {
	Publish(topic string, key string, event interface{}) error
}

// Dispatcher — асинхронный EventSink: уведомления складываются в ограниченный
// буфер и публикуются фоновой горутиной. Notify никогда не блокирует вызывающего
// и не участвует в его транзакции; сбои доставки и переполнение буфера
// логируются и считаются в метриках, но не всплывают наружу.
type Dispatcher struct {
	publisher Publisher
	topic     string
	logger    *log.Entry

	ch        chan domain.Notification
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher создаёт dispatcher поверх publisher; публиковать начинает после Start.
func NewDispatcher(publisher Publisher, topic string, logger *log.Entry) *Dispatcher {
	if logger == nil {
		logger = log.WithField("component", "event-dispatcher")
	}
	return &Dispatcher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
		ch:        make(chan domain.Notification, defaultBufferSize),
	}
}

// Start запускает фоновую публикацию до отмены контекста или Close.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case n, ok := <-d.ch:
				if !ok {
					return
				}
				d.publish(n)
			case <-ctx.Done():
				// Досылаем то, что уже в буфере.
				for {
					select {
					case n, ok := <-d.ch:
						if !ok {
							return
						}
						d.publish(n)
					default:
						return
					}
				}
			}
		}
	}()
}

// Notify ставит уведомление в очередь. При переполненном буфере уведомление
// отбрасывается: поток заказов важнее доставки событий.
func (d *Dispatcher) Notify(n domain.Notification) {
	select {
	case d.ch <- n:
	default:
		eventsDropped.Inc()
		d.logger.WithFields(log.Fields{
			"entity_type": n.EntityType,
			"action":      n.Action,
		}).Warn("event buffer full, notification dropped")
	}
}

// Close прекращает приём уведомлений и дожидается публикации буфера.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.ch)
	})
	d.wg.Wait()
}

func (d *Dispatcher) publish(n domain.Notification) {
	if err := d.publisher.Publish(d.topic, n.EntityType, n); err != nil {
		eventsPublished.WithLabelValues("error").Inc()
		d.logger.WithError(err).WithFields(log.Fields{
			"entity_type": n.EntityType,
			"action":      n.Action,
		}).Warn("publish notification failed")
		return
	}
	eventsPublished.WithLabelValues("ok").Inc()
}

var _ domain.EventSink = (*Dispatcher)(nil)
