// Package dispatch is the Signal Dispatcher / Strategy Host: it gates every
// inbound TickEvent against session invariants and cooldowns, maintains the
// per-asset anchor-price/urgency-window state machine, and translates
// Strategy intents into signed REST orders. Grounded on the teacher's
// internal/order/executor.go (submit-then-react order flow) and
// internal/risk/manager.go (gating checks before letting an order through),
// generalized from a multi-strategy/multi-gateway dispatch table to the
// spec's single traded-asset gating pipeline.
package dispatch

import (
	"time"

	"execution-core/internal/domain"
)

// assetState is the per-asset macro state the gating pipeline maintains:
// Uninit (anchorPrice nil) -> Anchored -> InFlight -> Holding -> Cooldown ->
// Anchored.
type assetState struct {
	anchorPrice *float64
	// anchoredAt is when anchorPrice was (re-)set; the urgency window is
	// measured from here, not from the first tick that deviates from it.
	anchoredAt        time.Time
	coolingDown       bool
	cooldownDeadline  time.Time
	lastKnownPosition domain.Position
}

// pendingBracket is recorded at place() time when a Strategy requests
// take-profit/stop-loss legs on an entry intent; it is consumed once the
// main order transitions to Filled (see §4.D's "emit placeBrackets").
type pendingBracket struct {
	asset   string
	side    domain.Side
	size    float64
	bracket domain.Bracket
}
