package app

import (
	"os"
	"strings"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/messaging/kafka"
)

// Config описывает настройки запуска сервиса.
// Пустой PostgresDSN переключает хранилище на in-memory реализацию,
// пустой KafkaBrokers отключает публикацию событий и приём команд.
type Config struct {
	MetricsAddr string

	PostgresDSN string
	RedisAddr   string

	KafkaBrokers   string
	EventTopic     string
	CommandTopic   string
	CommandGroupID string

	// Clients — известные клиентские ссылки в формате "ref=name,ref2=name2".
	Clients string
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:    ":9090",
		EventTopic:     kafka.TopicOrderEvents,
		CommandTopic:   kafka.TopicOrderCommands,
		CommandGroupID: kafka.DefaultCommandGroupID,
	}
}

// ReadConfig собирает конфигурацию из переменных окружения FULFILLMENT_*.
func ReadConfig() Config {
	cfg := DefaultConfig()
	cfg.MetricsAddr = envOr("FULFILLMENT_METRICS_ADDR", cfg.MetricsAddr)
	cfg.PostgresDSN = os.Getenv("FULFILLMENT_POSTGRES_DSN")
	cfg.RedisAddr = os.Getenv("FULFILLMENT_REDIS_ADDR")
	cfg.KafkaBrokers = os.Getenv("FULFILLMENT_KAFKA_BROKERS")
	cfg.EventTopic = envOr("FULFILLMENT_EVENT_TOPIC", cfg.EventTopic)
	cfg.CommandTopic = envOr("FULFILLMENT_COMMAND_TOPIC", cfg.CommandTopic)
	cfg.CommandGroupID = envOr("FULFILLMENT_COMMAND_GROUP_ID", cfg.CommandGroupID)
	cfg.Clients = os.Getenv("FULFILLMENT_CLIENTS")
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseClients разбирает список известных клиентов из строки конфигурации.
// Элементы без имени получают имя, равное ссылке.
func parseClients(raw string) []domain.Client {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	clients := make([]domain.Client, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ref, name, found := strings.Cut(part, "=")
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if !found || strings.TrimSpace(name) == "" {
			name = ref
		}
		clients = append(clients, domain.Client{Ref: ref, Name: strings.TrimSpace(name)})
	}
	return clients
}
