package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

type stubPublisher struct {
	mu     sync.Mutex
	err    error
	events []domain.Notification
}

func (p *stubPublisher) Publish(_ string, _ string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if n, ok := event.(domain.Notification); ok {
		p.events = append(p.events, n)
	}
	return nil
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestDispatcherPublishesNotifications(t *testing.T) {
	publisher := &stubPublisher{}
	d := NewDispatcher(publisher, "test.topic", nil)
	d.Start(context.Background())

	for i := 0; i < 3; i++ {
		d.Notify(domain.Notification{
			EntityType: domain.NotificationEntityOrder,
			Action:     domain.ActionOrderCreated,
			Timestamp:  time.Now().UTC(),
		})
	}
	d.Close()

	if got := publisher.count(); got != 3 {
		t.Fatalf("published = %d, want 3", got)
	}
}

// Сбой публикации не всплывает к вызывающему и не останавливает dispatcher.
func TestDispatcherSwallowsPublishErrors(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("broker down")}
	d := NewDispatcher(publisher, "test.topic", nil)
	d.Start(context.Background())

	d.Notify(domain.Notification{Action: domain.ActionOrderDeleted})
	d.Close()
	// Дошли до Close без паники и блокировки — этого достаточно.
}

func TestDispatcherNotifyNeverBlocks(t *testing.T) {
	publisher := &stubPublisher{}
	d := NewDispatcher(publisher, "test.topic", nil)
	// Dispatcher не запущен: буфер заполняется и начинает отбрасывать.

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBufferSize*2; i++ {
			d.Notify(domain.Notification{Action: domain.ActionOrderCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on full buffer")
	}
}

func TestNoopSinkNotify(t *testing.T) {
	sink := NewNoop(nil)
	sink.Notify(domain.Notification{Action: domain.ActionOrderCreated})
}
