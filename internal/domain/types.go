// Package domain holds the data types shared across ingest, session, position
// state, and dispatch. It mirrors the role of the teacher repo's
// pkg/exchanges/common package, generalized from a single-exchange REST/WS
// vocabulary to the leader/lagger vocabulary this engine needs.
package domain

import "time"

// Side denotes order side.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderKind enumerates the order types the lagger venue accepts from this engine.
type OrderKind string

const (
	OrderMarket       OrderKind = "MARKET"
	OrderLimit        OrderKind = "LIMIT"
	OrderStopMarket   OrderKind = "STOP_MARKET"
	OrderTrailingStop OrderKind = "TRAILING_STOP"
)

// TimeInForce captures TIF semantics.
type TimeInForce string

const (
	TIFGTC      TimeInForce = "GTC"
	TIFIOC      TimeInForce = "IOC"
	TIFPostOnly TimeInForce = "POST_ONLY"
)

// TriggerType selects the reference price a stop/trailing order watches.
type TriggerType string

const (
	TriggerLastTrade TriggerType = "LastTrade"
	TriggerMark      TriggerType = "Mark"
)

// Bracket describes the take-profit/stop-loss pair attached to an entry order.
type Bracket struct {
	TakeProfitPrice float64
	StopLossPrice   float64
	TrailAmount     float64 // alternative to StopLossPrice; sign convention per venue (negative for buy-side trail)
	Trigger         TriggerType
}

// OrderIntent is constructed by a Strategy and consumed by the dispatcher.
type OrderIntent struct {
	Asset         string
	Side          Side
	Size          float64
	Kind          OrderKind
	Price         float64 // required for Limit
	StopPrice     float64 // required for StopMarket
	TrailAmount   float64 // required for TrailingStop
	TimeInForce   TimeInForce
	ReduceOnly    bool
	ClientOrderID string
	Bracket       *Bracket
}

// OrderAck is the REST acknowledgement returned by place_order.
type OrderAck struct {
	ExchangeOrderID string
	ClientOrderID   string
	Status          string
}

// OrderRole distinguishes a bracket's legs.
type OrderRole string

const (
	RoleMain       OrderRole = "Main"
	RoleTakeProfit OrderRole = "TakeProfit"
	RoleStopLoss   OrderRole = "StopLoss"
	RoleReduce     OrderRole = "Reduce"
)

// OrderState is the normalized lifecycle state of a ManagedOrder.
type OrderState string

const (
	StatePending   OrderState = "Pending"
	StateAccepted  OrderState = "Accepted"
	StateWorking   OrderState = "Working"
	StateFilled    OrderState = "Filled"
	StateCancelled OrderState = "Cancelled"
	StateRejected  OrderState = "Rejected"
)

// ManagedOrder is the process's view of a single live (or recently live) order.
// Links are kept as a set of exchange IDs rather than pointers: the arena
// (posstate.Manager) owns every ManagedOrder and cancellation walks the index
// set, never a pointer graph, so a dangling link can never dereference freed
// memory.
type ManagedOrder struct {
	ExchangeID          string
	ClientOrderID       string
	ParentClientOrderID string
	Asset               string
	Role                OrderRole
	State               OrderState
	Linked              map[string]struct{}
}

// Position is the per-asset signed holding, cached from the lagger venue.
type Position struct {
	Asset         string
	Size          float64
	AvgEntryPrice float64
	LastUpdate    time.Time
}

// Side returns Buy for a long position, Sell for a short one, and "" when flat.
func (p Position) Side() Side {
	switch {
	case p.Size > 0:
		return SideBuy
	case p.Size < 0:
		return SideSell
	default:
		return ""
	}
}

// Flat reports whether the position is (numerically) closed.
func (p Position) Flat() bool {
	return p.Size == 0
}

// TickKind distinguishes the shape of a normalized ingest event.
type TickKind string

const (
	TickTrade    TickKind = "Trade"
	TickDepthL1  TickKind = "DepthL1"
	TickDepthLN  TickKind = "DepthLN"
)

// PriceLevel is a single (price, quantity) book level.
type PriceLevel [2]float64

// TickEvent is the canonical normalized market event produced by the ingest
// layer and consumed by the dispatcher. Exactly one of the Trade/L1/LN field
// groups is populated, selected by Kind.
type TickEvent struct {
	Asset  string
	Source string
	Kind   TickKind

	// Trade
	Price         float64
	Size          float64
	AggressorSide Side

	// DepthL1
	Bid, BidQty, Ask, AskQty float64

	// DepthLN
	Bids, Asks []PriceLevel

	Timestamp time.Time
}

// OrderBookL1 is the last-seen top-of-book snapshot for one asset on the
// lagger venue, single-writer (session task) / single-reader (dispatch task).
type OrderBookL1 struct {
	BestBid, BidQty, BestAsk, AskQty float64
	Sequence                         uint64
	UpdatedAt                        time.Time
}

// Stale reports whether the book hasn't been refreshed within maxAge.
func (b OrderBookL1) Stale(maxAge time.Duration) bool {
	return b.UpdatedAt.IsZero() || time.Since(b.UpdatedAt) > maxAge
}

// Microprice returns the quantity-weighted mid price. Returns 0 if both
// quantities are zero.
func (b OrderBookL1) Microprice() float64 {
	totalQty := b.BidQty + b.AskQty
	if totalQty == 0 {
		return 0
	}
	return (b.BestBid*b.AskQty + b.BestAsk*b.BidQty) / totalQty
}
