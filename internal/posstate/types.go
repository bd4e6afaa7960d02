// Package posstate is the Position & Order State component: the single
// source of truth inside the process for what is held and what orders are
// live. It reconciles three feeds (startup REST snapshot, WS position
// snapshot, WS order/position deltas) and owns OCO/bracket bookkeeping.
// Grounded on the teacher's internal/state/manager.go (positions map,
// weighted-average fill bookkeeping) generalized to the arena-of-links
// design required for cyclic main/tp/sl order linkage (see the repo's design
// notes on cyclic order linkage: an indexed store keyed by exchange_id,
// links held as index sets, never pointers).
package posstate

import (
	"time"

	"execution-core/internal/domain"
)

// pendingEntry is a client_order_id registered before its REST ack returns,
// so a WS order event that arrives first is not dropped.
type pendingEntry struct {
	Asset     string
	Role      domain.OrderRole
	CreatedAt time.Time
}

// ociPair tracks a TakeProfit/StopLoss pair under debounce after one leg
// fills, so a near-simultaneous fill of the sibling inside the window is a
// no-op rather than a duplicate cancel.
type ociPair struct {
	siblingExchangeID string
	timer             *time.Timer
}

// DebounceWindow is the spec's bracket-leg cancellation debounce.
const DebounceWindow = 250 * time.Millisecond

// CancelOnDisconnectTimeout is the venue-side auto-cancel timeout requested
// immediately after auth.
const CancelOnDisconnectTimeout = 60 * time.Second

// CancelOnDisconnectRefresh is the minimum refresh cadence while connected.
const CancelOnDisconnectRefresh = 5 * time.Minute
