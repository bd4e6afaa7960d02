package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"execution-core/internal/domain"
	"execution-core/internal/events"
)

type fakeRest struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRest) PlaceOrder(ctx context.Context, intent domain.OrderIntent, productID int) (domain.OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return domain.OrderAck{ExchangeOrderID: "ex-1", ClientOrderID: intent.ClientOrderID, Status: "open"}, nil
}

type fakePos struct {
	mu       sync.Mutex
	synced   bool
	position domain.Position
}

func (f *fakePos) StateSynced() bool      { return f.synced }
func (f *fakePos) Position() domain.Position { return f.position }
func (f *fakePos) HasOpenPosition() bool  { return !f.position.Flat() }
func (f *fakePos) MarkPossiblyOpen()      {}
func (f *fakePos) RegisterPending(string, string, domain.OrderRole) {}
func (f *fakePos) CancelPending(string)   {}
func (f *fakePos) ForceStateResync(context.Context) error { return nil }
func (f *fakePos) LinkBracket(string, string, string)     {}

type fakeSession struct {
	authenticated bool
	bookReady     bool
}

func (f *fakeSession) Authenticated() bool           { return f.authenticated }
func (f *fakeSession) BookReady() bool                { return f.bookReady }
func (f *fakeSession) BookL1() domain.OrderBookL1     { return domain.OrderBookL1{} }

type fakeStrategy struct {
	mu      sync.Mutex
	intents []*domain.OrderIntent
}

func (f *fakeStrategy) Name() string { return "fake" }
func (f *fakeStrategy) OnPriceUpdate(asset string, price, priceDiff float64) *domain.OrderIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent := &domain.OrderIntent{Side: domain.SideBuy, Size: 1, Kind: domain.OrderMarket}
	f.intents = append(f.intents, intent)
	return intent
}
func (f *fakeStrategy) OnDepthUpdate(asset string, book domain.OrderBookL1) {}
func (f *fakeStrategy) OnPositionUpdate(pos domain.Position)                {}
func (f *fakeStrategy) OnOrderUpdate(order domain.ManagedOrder)             {}

func newTestDispatcher(threshold float64, urgency time.Duration) (*Dispatcher, *fakeRest, *fakeStrategy, *events.Bus) {
	bus := events.NewBus()
	rest := &fakeRest{}
	pos := &fakePos{synced: true}
	sess := &fakeSession{authenticated: true, bookReady: true}
	strat := &fakeStrategy{}
	cfg := DefaultConfig()
	cfg.Asset = "BTC"
	cfg.ProductID = 27
	cfg.PriceThreshold = threshold
	cfg.UrgencyWindow = urgency
	cfg.CooldownPeriod = 30 * time.Second
	d := New(bus, rest, pos, sess, strat, cfg)
	return d, rest, strat, bus
}

// Boundary behaviors from the spec: threshold=2.0, urgency=1000ms, anchor=100.0.
func TestUrgencyWindowTriggers(t *testing.T) {
	d, rest, strat, _ := newTestDispatcher(2.0, 1000*time.Millisecond)
	ctx := context.Background()

	d.handleTick(ctx, domain.TickEvent{Asset: "BTC", Price: 100.0})
	d.mu.Lock()
	anchor := *d.state.anchorPrice
	d.mu.Unlock()
	if anchor != 100.0 {
		t.Fatalf("expected anchor 100.0, got %v", anchor)
	}

	d.handleTick(ctx, domain.TickEvent{Asset: "BTC", Price: 102.0})

	time.Sleep(10 * time.Millisecond)
	rest.mu.Lock()
	calls := rest.calls
	rest.mu.Unlock()
	strat.mu.Lock()
	intents := len(strat.intents)
	strat.mu.Unlock()
	if intents != 1 || calls != 1 {
		t.Fatalf("expected one dispatched intent within the urgency window, got intents=%d calls=%d", intents, calls)
	}
}

func TestUrgencyWindowExpiresAndReanchors(t *testing.T) {
	d, rest, strat, _ := newTestDispatcher(2.0, 1*time.Millisecond)
	ctx := context.Background()

	d.handleTick(ctx, domain.TickEvent{Asset: "BTC", Price: 100.0})
	time.Sleep(5 * time.Millisecond)
	d.handleTick(ctx, domain.TickEvent{Asset: "BTC", Price: 102.0})

	strat.mu.Lock()
	intents := len(strat.intents)
	strat.mu.Unlock()
	rest.mu.Lock()
	calls := rest.calls
	rest.mu.Unlock()
	if intents != 0 || calls != 0 {
		t.Fatalf("expected no dispatch once the urgency window expired, got intents=%d calls=%d", intents, calls)
	}

	d.mu.Lock()
	anchor := *d.state.anchorPrice
	d.mu.Unlock()
	if anchor != 102.0 {
		t.Fatalf("expected re-anchor to 102.0, got %v", anchor)
	}
}

func TestGatingDropsWhenSessionNotReady(t *testing.T) {
	d, rest, strat, _ := newTestDispatcher(2.0, time.Second)
	d.sess.(*fakeSession).bookReady = false
	ctx := context.Background()

	d.handleTick(ctx, domain.TickEvent{Asset: "BTC", Price: 100.0})
	d.handleTick(ctx, domain.TickEvent{Asset: "BTC", Price: 105.0})

	d.mu.Lock()
	anchored := d.state.anchorPrice != nil
	d.mu.Unlock()
	if anchored {
		t.Fatal("expected no anchor to be set while session is not ready")
	}
	strat.mu.Lock()
	defer strat.mu.Unlock()
	rest.mu.Lock()
	defer rest.mu.Unlock()
	if len(strat.intents) != 0 || rest.calls != 0 {
		t.Fatal("expected no strategy dispatch while session is not ready")
	}
}

func TestPositionCloseStartsCooldownAndClearsAnchor(t *testing.T) {
	d, _, _, _ := newTestDispatcher(2.0, time.Second)

	d.handlePositionUpdate(domain.Position{Asset: "BTC", Size: 1})
	d.handlePositionUpdate(domain.Position{Asset: "BTC", Size: 0})

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.state.coolingDown {
		t.Fatal("expected cooldown to start on nonzero-to-zero transition")
	}
	if d.state.anchorPrice != nil {
		t.Fatal("expected anchor_price to be cleared on cooldown entry")
	}
}

func TestEntryDropsWhileInFlight(t *testing.T) {
	d, rest, strat, _ := newTestDispatcher(2.0, time.Second)
	ctx := context.Background()

	d.setInFlight(true)
	d.handleTick(ctx, domain.TickEvent{Asset: "BTC", Price: 100.0})
	d.handleTick(ctx, domain.TickEvent{Asset: "BTC", Price: 103.0})

	strat.mu.Lock()
	defer strat.mu.Unlock()
	rest.mu.Lock()
	defer rest.mu.Unlock()
	if len(strat.intents) != 0 || rest.calls != 0 {
		t.Fatal("expected no dispatch while in_flight_intent is set")
	}
}
