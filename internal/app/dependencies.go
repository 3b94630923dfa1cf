package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/cache"
	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/events"
	"github.com/vladislavdragonenkov/fulfillment/internal/health"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/clients"
	"github.com/vladislavdragonenkov/fulfillment/internal/storage/memory"
	"github.com/vladislavdragonenkov/fulfillment/internal/storage/postgres"
)

// Dependencies содержит собранные зависимости приложения.
// Состав зависит от конфигурации: без PostgresDSN хранилище in-memory,
// без KafkaBrokers события уходят в no-op sink.
type Dependencies struct {
	Tx      domain.TxManager
	Orders  domain.OrderStore
	Cache   domain.OrderCache
	Clients domain.ClientLookup
	Events  domain.EventSink
	Logger  *log.Entry

	closers []func()
}

// NewDependencies создаёт зависимости по конфигурации и регистрирует
// health-проверки внешних систем.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry, healthHandler *health.Handler) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		deps.Tx = store.TxManager()
		deps.Orders = store.Orders()
		deps.closers = append(deps.closers, func() {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("failed to close postgres store")
			}
		})
		if healthHandler != nil {
			healthHandler.RegisterChecker("postgres", health.NewPingChecker("postgres", store))
		}
		logger.Info("using postgres storage")
	} else {
		store := memory.NewStore()
		deps.Tx = store.TxManager()
		deps.Orders = store.Orders()
		logger.Warn("postgres dsn is empty, using in-memory storage")
	}

	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr, logger.WithField("layer", "cache"))
		if err := redisCache.Ping(ctx); err != nil {
			logger.WithError(err).Warn("redis is unreachable, cache will degrade to misses")
		}
		deps.Cache = redisCache
		deps.closers = append(deps.closers, func() {
			if err := redisCache.Close(); err != nil {
				logger.WithError(err).Warn("failed to close redis cache")
			}
		})
		if healthHandler != nil {
			healthHandler.RegisterChecker("redis", health.NewPingChecker("redis", redisCache))
		}
	} else {
		memCache := cache.NewMemory()
		deps.Cache = memCache
		janitor := cache.NewJanitor(memCache, cache.WithJanitorLogger(logger.WithField("layer", "cache")))
		go janitor.Run(ctx)
	}

	deps.Clients = clients.NewStatic(parseClients(cfg.Clients)...)

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil || producer == nil {
		deps.Events = events.NewNoop(logger.WithField("layer", "events"))
		return deps, nil
	}

	dispatcher := events.NewDispatcher(producer, cfg.EventTopic, logger.WithField("layer", "events"))
	dispatcher.Start(ctx)
	deps.Events = dispatcher
	deps.closers = append(deps.closers, func() {
		dispatcher.Close()
		closeKafka(producer, logger)
	})

	return deps, nil
}

// Close освобождает ресурсы в порядке, обратном созданию.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}
