// Package ingest is the Market Ingest & Fan-out layer: one adapter per
// leader venue, each normalizing its wire frames into domain.TickEvent,
// coalesced and published on the shared event bus. Grounded on the
// teacher's pkg/market/binance/websocket.go StreamClient (reconnect backoff,
// one task per venue) generalized from a single exchange to a pluggable
// adapter set.
package ingest

import (
	"context"

	"execution-core/internal/domain"
)

// ConnState is a leader-venue adapter's connection sub-state machine.
type ConnState string

const (
	StateDisconnected ConnState = "Disconnected"
	StateConnecting   ConnState = "Connecting"
	StateSubscribing  ConnState = "Subscribing"
	StateLive         ConnState = "Live"
)

// Adapter is a pluggable leader-venue connector. Run blocks until ctx is
// cancelled or a transport error occurs; the Manager owns the reconnect loop
// around it so an Adapter implementation only needs to express one
// connection attempt.
type Adapter interface {
	// Name identifies the venue, used as TickEvent.Source.
	Name() string
	// Run dials, subscribes to assets, and emits normalized ticks via emit
	// until ctx is done or a transport error forces a reconnect.
	Run(ctx context.Context, assets []string, emit func(domain.TickEvent)) error
}
