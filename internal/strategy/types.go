// Package strategy defines the pluggable Strategy capability the dispatcher
// calls into. Concrete strategies (momentum/, grpcstrategy/) implement this
// interface; the individual quantitative formulae are explicitly out of
// scope for the execution core itself. Grounded on the teacher's
// internal/strategy/types.go capability-interface shape, generalized from a
// bot-owning-strategy back-reference to a narrow Facade passed in.
package strategy

import "execution-core/internal/domain"

// Facade is the narrow set of host capabilities a Strategy may use. It
// deliberately excludes direct transport access: strategies never touch
// the REST client or WebSocket sessions themselves.
type Facade interface {
	PlaceOrder(intent domain.OrderIntent) error
	GetL1Book(asset string) domain.OrderBookL1
	RegisterPending(clientOrderID, asset string, role domain.OrderRole)
	StartCooldown(asset string)
	HasOpenPosition(asset string) bool
}

// Strategy is the capability set a pluggable strategy must present.
type Strategy interface {
	Name() string
	// OnPriceUpdate is the main decision entry point for the urgency-window
	// dispatch path: priceDiff is |price - anchor_price|. Returning a non-nil
	// intent requests order placement; the dispatcher owns actually placing
	// it via Facade.
	OnPriceUpdate(asset string, price, priceDiff float64) *domain.OrderIntent
	// OnDepthUpdate lets a strategy that manages an already-open position
	// react to book updates directly.
	OnDepthUpdate(asset string, book domain.OrderBookL1)
	// OnPositionUpdate allows the strategy to maintain its own local
	// lifecycle state.
	OnPositionUpdate(pos domain.Position)
	// OnOrderUpdate is optional, for strategies that co-manage bracket
	// children.
	OnOrderUpdate(order domain.ManagedOrder)
}
