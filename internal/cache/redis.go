package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

const (
	// Ключ кэша заказа: order:{order_id} -> JSON агрегата.
	keyOrder = "order:%s"

	defaultOrderTTL = 5 * time.Minute
	opTimeout       = 2 * time.Second
)

// RedisCache — реализация кэша заказов поверх Redis.
// Кэш best-effort: ошибки Redis логируются и трактуются как промах,
// источником истины остаётся хранилище заказов.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Entry
}

// NewRedis создаёт кэш заказов на указанном адресе Redis.
func NewRedis(addr string, logger *log.Entry) *RedisCache {
	if logger == nil {
		logger = log.WithField("component", "order-cache")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisCache{
		client: client,
		ttl:    defaultOrderTTL,
		logger: logger,
	}
}

// Ping проверяет доступность Redis.
func (c *RedisCache) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return c.client.Ping(pingCtx).Err()
}

// Close закрывает подключение к Redis.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, id string) (domain.Order, bool) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.client.Get(opCtx, fmt.Sprintf(keyOrder, id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("order_id", id).Warn("cache get failed")
		}
		return domain.Order{}, false
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		c.logger.WithError(err).WithField("order_id", id).Warn("cache entry is not a valid order")
		return domain.Order{}, false
	}
	return order, true
}

func (c *RedisCache) Put(ctx context.Context, order domain.Order) {
	data, err := json.Marshal(order)
	if err != nil {
		c.logger.WithError(err).WithField("order_id", order.ID).Warn("cache marshal failed")
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Set(opCtx, fmt.Sprintf(keyOrder, order.ID), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("order_id", order.ID).Warn("cache put failed")
	}
}

func (c *RedisCache) Evict(ctx context.Context, id string) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Del(opCtx, fmt.Sprintf(keyOrder, id)).Err(); err != nil {
		c.logger.WithError(err).WithField("order_id", id).Warn("cache evict failed")
	}
}

var _ domain.OrderCache = (*RedisCache)(nil)
