package cache

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

func TestMemoryCachePutGetEvict(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	order := domain.Order{ID: "order-1", UserID: "user-1", TotalMinor: 2000}

	if _, ok := c.Get(ctx, "order-1"); ok {
		t.Fatal("empty cache must miss")
	}

	c.Put(ctx, order)
	got, ok := c.Get(ctx, "order-1")
	if !ok || got.TotalMinor != 2000 {
		t.Fatalf("get = (%+v, %v), want hit", got, ok)
	}

	c.Evict(ctx, "order-1")
	if _, ok := c.Get(ctx, "order-1"); ok {
		t.Fatal("evicted entry must miss")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put(ctx, domain.Order{ID: "order-1"})
	if _, ok := c.Get(ctx, "order-1"); !ok {
		t.Fatal("fresh entry must hit")
	}

	current = current.Add(defaultOrderTTL + time.Second)
	if _, ok := c.Get(ctx, "order-1"); ok {
		t.Fatal("expired entry must miss")
	}
}
