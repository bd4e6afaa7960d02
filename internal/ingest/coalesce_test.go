package ingest

import (
	"testing"
	"time"

	"execution-core/internal/domain"
)

func TestCoalescerKeepsOnlyLatestPerKey(t *testing.T) {
	var flushed []domain.TickEvent
	c := newCoalescer(time.Hour, func(t domain.TickEvent) {
		flushed = append(flushed, t)
	})

	c.Put(domain.TickEvent{Asset: "BTC", Source: "bybit", Price: 100})
	c.Put(domain.TickEvent{Asset: "BTC", Source: "bybit", Price: 101})
	c.Put(domain.TickEvent{Asset: "BTC", Source: "bybit", Price: 102})
	c.Put(domain.TickEvent{Asset: "ETH", Source: "bybit", Price: 5})

	c.flushAll()

	if len(flushed) != 2 {
		t.Fatalf("expected 2 flushed entries (one per key), got %d", len(flushed))
	}
	for _, f := range flushed {
		if f.Asset == "BTC" && f.Price != 102 {
			t.Fatalf("expected latest BTC price 102, got %v", f.Price)
		}
	}
}

func TestCoalescerFlushAllClearsPending(t *testing.T) {
	n := 0
	c := newCoalescer(time.Hour, func(domain.TickEvent) { n++ })
	c.Put(domain.TickEvent{Asset: "BTC", Source: "okx"})
	c.flushAll()
	c.flushAll()
	if n != 1 {
		t.Fatalf("expected exactly 1 flush callback, got %d", n)
	}
}
