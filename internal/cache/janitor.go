package cache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const defaultPurgeInterval = time.Minute

var (
	cachePurgeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_cache_purge_runs_total",
		Help: "Total number of cache purge runs grouped by result.",
	}, []string{"result"})
	cachePurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_cache_purged_total",
		Help: "Total number of purged expired cache entries.",
	})
	cachePurgeLastPurged = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fulfillment_cache_purge_last_purged",
		Help: "Number of purged entries during the last purge run.",
	})
)

// Purger удаляет просроченные записи кэша.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// JanitorOption настраивает Janitor.
type JanitorOption func(*Janitor)

// WithJanitorLogger задаёт logger для воркера.
func WithJanitorLogger(logger *log.Entry) JanitorOption {
	return func(j *Janitor) {
		j.logger = logger
	}
}

// WithJanitorInterval задаёт интервал между циклами очистки.
func WithJanitorInterval(interval time.Duration) JanitorOption {
	return func(j *Janitor) {
		j.interval = interval
	}
}

// Janitor периодически выгребает просроченные записи из кэша.
// Нужен только для кэшей без собственного TTL-вытеснения.
type Janitor struct {
	purger   Purger
	logger   *log.Entry
	interval time.Duration
}

// NewJanitor создаёт воркер очистки кэша.
func NewJanitor(purger Purger, options ...JanitorOption) *Janitor {
	j := &Janitor{
		purger:   purger,
		interval: defaultPurgeInterval,
	}
	for _, option := range options {
		option(j)
	}

	if j.logger == nil {
		j.logger = log.WithField("component", "cache-janitor")
	}
	if j.interval <= 0 {
		j.interval = defaultPurgeInterval
	}

	return j
}

// Run запускает периодическую очистку до отмены ctx.
func (j *Janitor) Run(ctx context.Context) {
	if j.purger == nil {
		j.logger.Warn("cache janitor is disabled: purger is nil")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.purge(ctx)
		}
	}
}

func (j *Janitor) purge(ctx context.Context) {
	purged, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		cachePurgeRunsTotal.WithLabelValues("error").Inc()
		j.logger.WithError(err).Warn("cache purge run failed")
		return
	}

	cachePurgeRunsTotal.WithLabelValues("ok").Inc()
	cachePurgedTotal.Add(float64(purged))
	cachePurgeLastPurged.Set(float64(purged))
	if purged > 0 {
		j.logger.WithField("purged", purged).Debug("cache purge completed")
	}
}
