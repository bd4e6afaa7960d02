package posstate

import (
	"context"
	"log"
	"sync"
	"time"

	"execution-core/internal/domain"
	"execution-core/internal/events"
)

// restClient is the narrow REST surface posstate needs; satisfied by
// *laggerrest.Client. Kept as an interface so reconciliation logic is
// testable without a live venue, following the teacher's futClient pattern
// in internal/order/user_stream_futures.go.
type restClient interface {
	GetPositions(ctx context.Context) ([]domain.Position, error)
	CancelOrdersBatch(ctx context.Context, productID int, exchangeIDs []string) error
	SetCancelOnDisconnect(ctx context.Context, timeout time.Duration) error
}

// Manager is the Position & Order State component.
type Manager struct {
	bus       *events.Bus
	rest      restClient
	productID int
	asset     string

	mu              sync.Mutex
	orders          map[string]*domain.ManagedOrder // keyed by exchange_id
	pending         map[string]pendingEntry         // keyed by client_order_id
	ociPairs        map[string]*ociPair             // keyed by the exchange_id that just filled
	position        domain.Position
	hasOpenPosition bool
	stateSynced     bool
}

// NewManager builds a posstate Manager for a single traded asset.
func NewManager(bus *events.Bus, rest restClient, productID int, asset string) *Manager {
	return &Manager{
		bus:       bus,
		rest:      rest,
		productID: productID,
		asset:     asset,
		orders:    make(map[string]*domain.ManagedOrder),
		pending:   make(map[string]pendingEntry),
		ociPairs:  make(map[string]*ociPair),
	}
}

// StateSynced reports whether the first position snapshot has been absorbed
// since the current session began (boot or last reconnect).
func (m *Manager) StateSynced() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateSynced
}

// Position returns the cached position for the traded asset.
func (m *Manager) Position() domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// HasOpenPosition reports the optimistic-true-only flag: it may be set
// optimistically ahead of venue confirmation but is never cleared except by
// an authoritative venue message.
func (m *Manager) HasOpenPosition() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasOpenPosition
}

// MarkPossiblyOpen optimistically sets has_open_position to true; used by
// the dispatcher the instant an entry intent is placed, ahead of the WS
// confirmation, to close the race window described in the spec.
func (m *Manager) MarkPossiblyOpen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasOpenPosition = true
}

// OnReconnect clears state_synced, since I1 requires it false from boot and
// on every reconnect until a fresh position snapshot arrives.
func (m *Manager) OnReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateSynced = false
}

// RegisterPending records a freshly minted client_order_id before the REST
// ack returns, so an out-of-order WS order event is not dropped.
func (m *Manager) RegisterPending(clientOrderID, asset string, role domain.OrderRole) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[clientOrderID] = pendingEntry{Asset: asset, Role: role, CreatedAt: time.Now()}
}

// CancelPending removes a pending registration after a REST failure.
func (m *Manager) CancelPending(clientOrderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, clientOrderID)
}

// SyncPositionsFromREST performs the startup REST reconciliation and
// publishes a synthetic PositionUpdate for the traded asset.
func (m *Manager) SyncPositionsFromREST(ctx context.Context) error {
	positions, err := m.rest.GetPositions(ctx)
	if err != nil {
		return err
	}
	var found domain.Position
	for _, p := range positions {
		if p.Asset == m.asset {
			found = p
			break
		}
	}
	m.applyPositionUpdate(found, true)
	return nil
}

// ForceStateResync re-reads positions from REST; the canonical recovery
// policy on a venue state-mismatch error is re-sync, never guess.
func (m *Manager) ForceStateResync(ctx context.Context) error {
	return m.SyncPositionsFromREST(ctx)
}

// OnPositionUpdate applies a WS position event for the traded asset.
func (m *Manager) OnPositionUpdate(p domain.Position) {
	if p.Asset != "" && p.Asset != m.asset {
		return
	}
	m.applyPositionUpdate(p, false)
}

// applyPositionUpdate stores the latest position and publishes it; the
// dispatcher (the sole subscriber that starts cooldowns) detects the
// nonzero-to-zero transition itself by comparing against its own last-seen
// copy, since Manager holds no dispatch-layer state.
func (m *Manager) applyPositionUpdate(p domain.Position, fromSnapshot bool) {
	m.mu.Lock()
	m.position = p
	m.stateSynced = true
	m.hasOpenPosition = !p.Flat()
	m.mu.Unlock()

	topic := events.TopicPositionUpdate
	if fromSnapshot {
		topic = events.TopicPositionSnapshot
	}
	m.bus.Publish(topic, p)
}

// OnOrderUpdate applies a WS order event, matching it to an existing arena
// entry by exchange_id or, failing that, to a pending registration by
// client_order_id, and runs the ManagedOrder state machine.
func (m *Manager) OnOrderUpdate(w domain.ManagedOrder) {
	m.mu.Lock()
	existing, ok := m.orders[w.ExchangeID]
	if !ok {
		pend, wasPending := m.pending[w.ClientOrderID]
		role := domain.RoleMain
		if wasPending {
			role = pend.Role
			delete(m.pending, w.ClientOrderID)
		}
		existing = &domain.ManagedOrder{
			ExchangeID:    w.ExchangeID,
			ClientOrderID: w.ClientOrderID,
			Asset:         m.asset,
			Role:          role,
			Linked:        make(map[string]struct{}),
		}
		m.orders[w.ExchangeID] = existing
	}
	existing.State = w.State
	role := existing.Role
	exchangeID := existing.ExchangeID
	var siblingID string
	for k := range existing.Linked {
		siblingID = k
		break
	}
	m.mu.Unlock()

	m.bus.Publish(events.TopicOrderUpdate, *existing)

	if w.State == domain.StateFilled && (role == domain.RoleTakeProfit || role == domain.RoleStopLoss) && siblingID != "" {
		m.scheduleSiblingCancel(exchangeID, siblingID)
	}
}

// LinkBracket registers a Main order's TakeProfit/StopLoss children as an OCO
// pair: Main links to both; TakeProfit and StopLoss link to each other.
func (m *Manager) LinkBracket(mainID, tpID, slID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ensure := func(id string, role domain.OrderRole) *domain.ManagedOrder {
		o, ok := m.orders[id]
		if !ok {
			o = &domain.ManagedOrder{ExchangeID: id, Asset: m.asset, Role: role, Linked: make(map[string]struct{})}
			m.orders[id] = o
		}
		return o
	}

	main := ensure(mainID, domain.RoleMain)
	tp := ensure(tpID, domain.RoleTakeProfit)
	sl := ensure(slID, domain.RoleStopLoss)

	main.Linked[tpID] = struct{}{}
	main.Linked[slID] = struct{}{}
	tp.Linked[slID] = struct{}{}
	sl.Linked[tpID] = struct{}{}
}

// scheduleSiblingCancel enqueues cancellation of the linked sibling,
// debounced by DebounceWindow; if the sibling also fills inside the window,
// the cancel becomes a no-op.
func (m *Manager) scheduleSiblingCancel(filledID, siblingID string) {
	m.mu.Lock()
	if _, inFlight := m.ociPairs[filledID]; inFlight {
		m.mu.Unlock()
		return
	}
	pair := &ociPair{siblingExchangeID: siblingID}
	m.ociPairs[filledID] = pair
	m.mu.Unlock()

	pair.timer = time.AfterFunc(DebounceWindow, func() {
		m.mu.Lock()
		sibling, ok := m.orders[siblingID]
		delete(m.ociPairs, filledID)
		alreadyFilled := ok && sibling.State == domain.StateFilled
		m.mu.Unlock()

		if alreadyFilled {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := m.rest.CancelOrdersBatch(ctx, m.productID, []string{siblingID}); err != nil {
			log.Printf("posstate: cancel OCO sibling %s: %v", siblingID, err)
		}
	})
}

// SetupCancelOnDisconnect issues the venue-side auto-cancel call immediately
// after auth and refreshes it periodically while connected. ctx must be
// scoped to the connection's lifetime (not a short-lived startup context):
// the refresh goroutine runs until ctx is cancelled, and cancelling it early
// would silently stop the refresh, leaving the venue to auto-cancel all
// live orders the next time the deadman's switch lapses.
func (m *Manager) SetupCancelOnDisconnect(ctx context.Context) {
	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := m.rest.SetCancelOnDisconnect(initCtx, CancelOnDisconnectTimeout)
	cancel()
	if err != nil {
		log.Printf("posstate: set cancel-on-disconnect: %v", err)
	}
	go func() {
		ticker := time.NewTicker(CancelOnDisconnectRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.rest.SetCancelOnDisconnect(ctx, CancelOnDisconnectTimeout); err != nil {
					log.Printf("posstate: refresh cancel-on-disconnect: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
