package clients

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// StaticLookup — конфигурируемая реализация ClientLookup для разработки и тестов.
// В production заменяется клиентом внешнего сервиса клиентов.
type StaticLookup struct {
	mu      sync.RWMutex
	clients map[string]domain.Client

	ResolveCalls int
}

// NewStatic создаёт lookup с заданными клиентами.
func NewStatic(known ...domain.Client) *StaticLookup {
	clients := make(map[string]domain.Client, len(known))
	for _, c := range known {
		clients[c.Ref] = c
	}
	return &StaticLookup{clients: clients}
}

// Add регистрирует клиента.
func (l *StaticLookup) Add(client domain.Client) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clients[client.Ref] = client
}

// Resolve возвращает клиента по ссылке или ErrClientNotFound.
func (l *StaticLookup) Resolve(_ context.Context, ref string) (domain.Client, error) {
	l.mu.Lock()
	l.ResolveCalls++
	client, ok := l.clients[ref]
	l.mu.Unlock()

	if !ok {
		return domain.Client{}, domain.ErrClientNotFound
	}
	return client, nil
}

var _ domain.ClientLookup = (*StaticLookup)(nil)
