package posstate

import (
	"context"
	"sync"
	"testing"
	"time"

	"execution-core/internal/domain"
	"execution-core/internal/events"
)

type fakeRest struct {
	mu          sync.Mutex
	positions   []domain.Position
	cancelled   [][]string
	cancelCalls int
}

func (f *fakeRest) GetPositions(ctx context.Context) ([]domain.Position, error) {
	return f.positions, nil
}

func (f *fakeRest) CancelOrdersBatch(ctx context.Context, productID int, exchangeIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, exchangeIDs)
	f.cancelCalls++
	return nil
}

func (f *fakeRest) SetCancelOnDisconnect(ctx context.Context, timeout time.Duration) error {
	return nil
}

func (f *fakeRest) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelCalls
}

func TestRegisterPendingThenOrderUpdateMatchesByClientOrderID(t *testing.T) {
	bus := events.NewBus()
	rest := &fakeRest{}
	m := NewManager(bus, rest, 27, "BTC")

	m.RegisterPending("cid-1", "BTC", domain.RoleMain)
	m.OnOrderUpdate(domain.ManagedOrder{ExchangeID: "ex-1", ClientOrderID: "cid-1", State: domain.StateWorking})

	m.mu.Lock()
	o, ok := m.orders["ex-1"]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("expected order ex-1 to be registered in the arena")
	}
	if o.Role != domain.RoleMain {
		t.Fatalf("expected role Main from pending registration, got %v", o.Role)
	}
	if len(m.pending) != 0 {
		t.Fatalf("expected pending registration consumed, still have %d entries", len(m.pending))
	}
}

func TestOCOFillSchedulesSiblingCancelWithinDebounce(t *testing.T) {
	bus := events.NewBus()
	rest := &fakeRest{}
	m := NewManager(bus, rest, 27, "BTC")

	m.LinkBracket("main-1", "tp-1", "sl-1")
	m.OnOrderUpdate(domain.ManagedOrder{ExchangeID: "tp-1", ClientOrderID: "c-tp", State: domain.StateFilled})

	deadline := time.Now().Add(2 * time.Second)
	for rest.cancelCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if rest.cancelCount() != 1 {
		t.Fatalf("expected exactly 1 cancel call within debounce+latency budget, got %d", rest.cancelCount())
	}
	rest.mu.Lock()
	got := rest.cancelled[0]
	rest.mu.Unlock()
	if len(got) != 1 || got[0] != "sl-1" {
		t.Fatalf("expected cancel of sl-1, got %v", got)
	}
}

func TestOCOSiblingAlreadyFilledIsNoOp(t *testing.T) {
	bus := events.NewBus()
	rest := &fakeRest{}
	m := NewManager(bus, rest, 27, "BTC")

	m.LinkBracket("main-1", "tp-1", "sl-1")
	m.OnOrderUpdate(domain.ManagedOrder{ExchangeID: "sl-1", ClientOrderID: "c-sl", State: domain.StateFilled})
	m.OnOrderUpdate(domain.ManagedOrder{ExchangeID: "tp-1", ClientOrderID: "c-tp", State: domain.StateFilled})

	time.Sleep(DebounceWindow + 300*time.Millisecond)
	if rest.cancelCount() != 0 {
		t.Fatalf("expected no cancel when both legs fill inside the debounce window, got %d calls", rest.cancelCount())
	}
}

func TestSyncPositionsFromRESTPublishesSnapshot(t *testing.T) {
	bus := events.NewBus()
	rest := &fakeRest{positions: []domain.Position{{Asset: "BTC", Size: 0}}}
	m := NewManager(bus, rest, 27, "BTC")

	ch, unsub := bus.Subscribe(events.TopicPositionSnapshot, 1)
	defer unsub()

	if err := m.SyncPositionsFromREST(context.Background()); err != nil {
		t.Fatalf("SyncPositionsFromREST: %v", err)
	}
	if !m.StateSynced() {
		t.Fatalf("expected state_synced true after startup snapshot")
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("expected a PositionSnapshot publication")
	}
}

func TestHasOpenPositionNeverOptimisticallyClearedExceptByVenue(t *testing.T) {
	bus := events.NewBus()
	rest := &fakeRest{}
	m := NewManager(bus, rest, 27, "BTC")

	m.MarkPossiblyOpen()
	if !m.HasOpenPosition() {
		t.Fatalf("expected optimistic true to stick")
	}

	m.OnPositionUpdate(domain.Position{Asset: "BTC", Size: 0})
	if m.HasOpenPosition() {
		t.Fatalf("expected venue-confirmed flat position to clear has_open_position")
	}
}
