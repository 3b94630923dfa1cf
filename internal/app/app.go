package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/fulfillment/internal/health"
	"github.com/vladislavdragonenkov/fulfillment/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/commands"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/lifecycle"
	"github.com/vladislavdragonenkov/fulfillment/internal/version"
)

// Run собирает зависимости по cfg и держит сервис до отмены ctx:
// HTTP-сервер метрик и health-проверок плюс, при настроенной Kafka,
// consumer входящих команд над заказами.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	v, _, _ := version.Info()
	healthHandler := healthcheck.NewHandler(v)

	deps, err := NewDependencies(ctx, cfg, logger, healthHandler)
	if err != nil {
		return err
	}
	defer deps.Close()

	manager := lifecycle.NewManager(
		deps.Tx,
		deps.Orders,
		nil,
		nil,
		deps.Cache,
		deps.Clients,
		deps.Events,
		logger.WithField("layer", "lifecycle"),
	)

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger)

	consumerErrCh := make(chan error, 1)
	var consumer *kafka.Consumer
	if cfg.KafkaBrokers != "" {
		handler := commands.NewHandler(manager, logger.WithField("layer", "commands"))
		consumer, err = kafka.NewConsumer(
			splitBrokers(cfg.KafkaBrokers),
			cfg.CommandGroupID,
			[]string{cfg.CommandTopic},
			handler.Handle,
		)
		if err != nil {
			return err
		}

		go func() {
			logger.WithField("topic", cfg.CommandTopic).Info("command consumer started")
			consumerErrCh <- consumer.Start(ctx)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис")
		if consumer != nil {
			if err := consumer.Stop(); err != nil {
				logger.WithError(err).Warn("failed to stop command consumer")
			}
		}
		return ctx.Err()
	case err := <-consumerErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

// startMetricsServer запускает HTTP-обработчики метрик и health-проверок.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
