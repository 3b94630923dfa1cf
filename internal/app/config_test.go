package app

import (
	"reflect"
	"testing"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/messaging/kafka"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MetricsAddr != ":9090" {
		t.Errorf("unexpected metrics addr: %s", cfg.MetricsAddr)
	}
	if cfg.EventTopic != kafka.TopicOrderEvents {
		t.Errorf("unexpected event topic: %s", cfg.EventTopic)
	}
	if cfg.CommandTopic != kafka.TopicOrderCommands {
		t.Errorf("unexpected command topic: %s", cfg.CommandTopic)
	}
	if cfg.CommandGroupID != kafka.DefaultCommandGroupID {
		t.Errorf("unexpected command group: %s", cfg.CommandGroupID)
	}
}

func TestReadConfig_Env(t *testing.T) {
	t.Setenv("FULFILLMENT_METRICS_ADDR", ":9191")
	t.Setenv("FULFILLMENT_POSTGRES_DSN", "postgres://localhost/fulfillment")
	t.Setenv("FULFILLMENT_REDIS_ADDR", "localhost:6379")
	t.Setenv("FULFILLMENT_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("FULFILLMENT_COMMAND_TOPIC", "custom.commands")
	t.Setenv("FULFILLMENT_CLIENTS", "acme=ACME Inc,globex")

	cfg := ReadConfig()

	if cfg.MetricsAddr != ":9191" {
		t.Errorf("unexpected metrics addr: %s", cfg.MetricsAddr)
	}
	if cfg.PostgresDSN != "postgres://localhost/fulfillment" {
		t.Errorf("unexpected postgres dsn: %s", cfg.PostgresDSN)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("unexpected redis addr: %s", cfg.RedisAddr)
	}
	if cfg.KafkaBrokers != "kafka-1:9092,kafka-2:9092" {
		t.Errorf("unexpected kafka brokers: %s", cfg.KafkaBrokers)
	}
	if cfg.CommandTopic != "custom.commands" {
		t.Errorf("unexpected command topic: %s", cfg.CommandTopic)
	}
	if cfg.EventTopic != kafka.TopicOrderEvents {
		t.Errorf("event topic must keep default, got %s", cfg.EventTopic)
	}
	if cfg.Clients != "acme=ACME Inc,globex" {
		t.Errorf("unexpected clients: %s", cfg.Clients)
	}
}

func TestParseClients(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []domain.Client
	}{
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
		{
			name: "ref with name",
			raw:  "acme=ACME Inc",
			want: []domain.Client{{Ref: "acme", Name: "ACME Inc"}},
		},
		{
			name: "ref without name uses ref",
			raw:  "globex",
			want: []domain.Client{{Ref: "globex", Name: "globex"}},
		},
		{
			name: "mixed with spaces and empties",
			raw:  " acme = ACME Inc , ,globex,=nameless",
			want: []domain.Client{
				{Ref: "acme", Name: "ACME Inc"},
				{Ref: "globex", Name: "globex"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseClients(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseClients(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestSplitBrokers(t *testing.T) {
	got := splitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	want := []string{"kafka-1:9092", "kafka-2:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitBrokers = %v, want %v", got, want)
	}
}
