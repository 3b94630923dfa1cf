package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

type countingPurger struct {
	calls atomic.Int64
	err   error
}

func (p *countingPurger) PurgeExpired(_ context.Context) (int, error) {
	p.calls.Add(1)
	return 1, p.err
}

func TestMemoryCachePurgeExpired(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put(ctx, domain.Order{ID: "order-1"})
	c.Put(ctx, domain.Order{ID: "order-2"})

	purged, err := c.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 0 {
		t.Fatalf("fresh entries must survive, purged %d", purged)
	}

	current = current.Add(defaultOrderTTL + time.Second)
	purged, err = c.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 2 {
		t.Fatalf("purged = %d, want 2", purged)
	}
	if _, ok := c.Get(ctx, "order-1"); ok {
		t.Fatal("purged entry must miss")
	}
}

func TestJanitorRunsUntilCanceled(t *testing.T) {
	purger := &countingPurger{}
	janitor := NewJanitor(purger, WithJanitorInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		janitor.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for purger.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("janitor never ran a purge cycle")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestJanitorSurvivesPurgeErrors(t *testing.T) {
	purger := &countingPurger{err: errors.New("boom")}
	janitor := NewJanitor(purger, WithJanitorInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go janitor.Run(ctx)

	deadline := time.After(2 * time.Second)
	for purger.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("janitor stopped after a purge error")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestJanitorNilPurger(t *testing.T) {
	janitor := NewJanitor(nil)

	done := make(chan struct{})
	go func() {
		janitor.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor with nil purger must return immediately")
	}
}
