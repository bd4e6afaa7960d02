package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"execution-core/internal/domain"
	"execution-core/internal/events"
	"execution-core/internal/strategy"
	"execution-core/internal/telemetry"
	"execution-core/pkg/laggerrest"

	"github.com/google/uuid"
)

// restClient is the narrow REST surface the dispatcher needs; satisfied by
// *laggerrest.Client.
type restClient interface {
	PlaceOrder(ctx context.Context, intent domain.OrderIntent, productID int) (domain.OrderAck, error)
}

// posState is the narrow posstate.Manager surface the dispatcher needs.
type posState interface {
	StateSynced() bool
	Position() domain.Position
	HasOpenPosition() bool
	MarkPossiblyOpen()
	RegisterPending(clientOrderID, asset string, role domain.OrderRole)
	CancelPending(clientOrderID string)
	ForceStateResync(ctx context.Context) error
	LinkBracket(mainID, tpID, slID string)
}

// sessionView is the narrow session.Manager surface the dispatcher needs.
type sessionView interface {
	Authenticated() bool
	BookReady() bool
	BookL1() domain.OrderBookL1
}

// Config holds the per-asset gating thresholds, sourced from the engine's
// environment configuration.
type Config struct {
	Asset           string
	ProductID       int
	PriceThreshold  float64
	UrgencyWindow   time.Duration
	CooldownPeriod  time.Duration
	RetryCooldown   time.Duration
	DefaultTIF      domain.TimeInForce
}

// DefaultConfig fills in the spec's suggested retry-cooldown; callers
// override the rest from loaded configuration.
func DefaultConfig() Config {
	return Config{RetryCooldown: 2 * time.Second, DefaultTIF: domain.TIFGTC}
}

// Dispatcher is the Signal Dispatcher / Strategy Host (component E): it
// gates every inbound TickEvent, maintains the per-asset macro state
// machine, and is the sole mutator of Position/ManagedOrders/SessionState
// reachable from strategy callbacks (all strategy interaction happens
// through the Dispatcher itself, which implements strategy.Facade).
type Dispatcher struct {
	bus   *events.Bus
	rest  restClient
	pos   posState
	sess  sessionView
	strat strategy.Strategy
	cfg   Config

	throttle *telemetry.Throttle

	mu              sync.Mutex
	state           assetState
	inFlight        bool
	pendingBrackets map[string]pendingBracket
}

// New builds a Dispatcher for a single traded asset.
func New(bus *events.Bus, rest restClient, pos posState, sess sessionView, strat strategy.Strategy, cfg Config) *Dispatcher {
	return &Dispatcher{
		bus:             bus,
		rest:            rest,
		pos:             pos,
		sess:            sess,
		strat:           strat,
		cfg:             cfg,
		throttle:        telemetry.NewThrottle(5 * time.Second),
		pendingBrackets: make(map[string]pendingBracket),
	}
}

// Run is the dispatcher's main loop: a single-consumer mailbox over ticks,
// order updates, and position updates, preserving the FIFO discipline the
// spec requires within each source.
func (d *Dispatcher) Run(ctx context.Context) {
	ticks, unsubTicks := d.bus.Subscribe(events.TopicTick, 256)
	orders, unsubOrders := d.bus.Subscribe(events.TopicOrderUpdate, 64)
	posUpdates, unsubPos := d.bus.Subscribe(events.TopicPositionUpdate, 16)
	posSnaps, unsubSnaps := d.bus.Subscribe(events.TopicPositionSnapshot, 4)
	defer unsubTicks()
	defer unsubOrders()
	defer unsubPos()
	defer unsubSnaps()

	for {
		select {
		case <-ctx.Done():
			return
		case v := <-ticks:
			if t, ok := v.(domain.TickEvent); ok {
				d.handleTick(ctx, t)
			}
		case v := <-orders:
			if o, ok := v.(domain.ManagedOrder); ok {
				d.handleOrderUpdate(ctx, o)
			}
		case v := <-posUpdates:
			if p, ok := v.(domain.Position); ok {
				d.handlePositionUpdate(p)
			}
		case v := <-posSnaps:
			if p, ok := v.(domain.Position); ok {
				d.handlePositionUpdate(p)
			}
		}
	}
}

// handleTick applies the gating pipeline in the order the spec mandates.
func (d *Dispatcher) handleTick(ctx context.Context, t domain.TickEvent) {
	// 1. session readiness
	if !d.pos.StateSynced() || !d.sess.Authenticated() || !d.sess.BookReady() {
		if d.throttle.Allow("gate:not-ready") {
			log.Printf("dispatch: drop tick for %s: session not ready", t.Asset)
		}
		return
	}

	// 2. asset filter
	if t.Asset != d.cfg.Asset {
		return
	}

	d.mu.Lock()
	if d.state.anchorPrice == nil && t.Price > 0 {
		// 3. first admitted tick anchors; the urgency window is measured
		// from this instant, not from whenever the price first moves off
		// the anchor, so a direct anchor->threshold jump that lands outside
		// the window correctly fails to trigger. No trade this tick.
		anchor := t.Price
		d.state.anchorPrice = &anchor
		d.state.anchoredAt = time.Now()
		d.mu.Unlock()
		return
	}
	anchor := d.state.anchorPrice
	d.mu.Unlock()
	if anchor == nil {
		return
	}

	// 4. in-position: forward to strategy, skip entry-threshold logic.
	position := d.pos.Position()
	if !position.Flat() {
		d.strat.OnDepthUpdate(t.Asset, d.sess.BookL1())
		return
	}

	d.mu.Lock()
	if d.state.coolingDown && !d.state.cooldownDeadline.IsZero() && time.Now().After(d.state.cooldownDeadline) {
		d.state.coolingDown = false
	}
	coolingDown := d.state.coolingDown
	d.mu.Unlock()

	// 5. in-flight or cooldown suppression.
	if d.isInFlight() || coolingDown {
		return
	}

	// 6. urgency window.
	if t.Price <= 0 {
		return
	}
	priceDiff := t.Price - *anchor
	if priceDiff < 0 {
		priceDiff = -priceDiff
	}

	d.mu.Lock()
	withinWindow := time.Since(d.state.anchoredAt) <= d.cfg.UrgencyWindow
	urgent := priceDiff >= d.cfg.PriceThreshold && withinWindow
	if !urgent && !withinWindow {
		// Window expired without a qualifying move: re-anchor to the
		// current price and restart the clock from this tick.
		reanchor := t.Price
		d.state.anchorPrice = &reanchor
		d.state.anchoredAt = time.Now()
	}
	d.mu.Unlock()

	if !urgent {
		return
	}

	intent := d.strat.OnPriceUpdate(t.Asset, t.Price, priceDiff)
	if intent == nil {
		return
	}
	intent.Asset = t.Asset
	if intent.TimeInForce == "" {
		intent.TimeInForce = d.cfg.DefaultTIF
	}
	if err := d.place(ctx, *intent); err != nil {
		log.Printf("dispatch: entry intent for %s failed: %v", t.Asset, err)
	}
}

func (d *Dispatcher) isInFlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

func (d *Dispatcher) setInFlight(v bool) {
	d.mu.Lock()
	d.inFlight = v
	d.mu.Unlock()
}

// place is the intent-translation step: register pending, call the REST
// client, and promote or roll back the registration depending on the
// outcome. Entry intents from ticks and Facade calls both go through it, and
// it holds in_flight_intent set for the duration of the REST call; it does
// not itself refuse a call while another is in flight. Bracket legs are
// placed by placeBracketLegs, which calls the REST client directly.
func (d *Dispatcher) place(ctx context.Context, intent domain.OrderIntent) error {
	if intent.ClientOrderID == "" {
		intent.ClientOrderID = uuid.NewString()
	}

	d.setInFlight(true)
	d.pos.RegisterPending(intent.ClientOrderID, intent.Asset, domain.RoleMain)
	if intent.Bracket != nil {
		d.mu.Lock()
		d.pendingBrackets[intent.ClientOrderID] = pendingBracket{
			asset:   intent.Asset,
			side:    intent.Side,
			size:    intent.Size,
			bracket: *intent.Bracket,
		}
		d.mu.Unlock()
	}

	ack, err := d.rest.PlaceOrder(ctx, intent, d.cfg.ProductID)
	if err != nil {
		d.pos.CancelPending(intent.ClientOrderID)
		d.mu.Lock()
		delete(d.pendingBrackets, intent.ClientOrderID)
		d.mu.Unlock()
		d.setInFlight(false)
		d.handlePlaceError(ctx, err)
		return err
	}

	_ = ack
	d.pos.MarkPossiblyOpen()
	d.setInFlight(false)
	return nil
}

// handlePlaceError implements the business-error recovery path: a
// position-exists or rate-limited rejection forces a REST re-sync (never a
// local guess) and opens a short retry-cooldown.
func (d *Dispatcher) handlePlaceError(ctx context.Context, err error) {
	var apiErr *laggerrest.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "position_exists", "bracket_order_position_exists":
			if rerr := d.pos.ForceStateResync(ctx); rerr != nil {
				log.Printf("dispatch: force state resync failed: %v", rerr)
			}
			d.startRetryCooldown()
		case "rate_limited":
			d.startRetryCooldown()
		}
	}
}

func (d *Dispatcher) startRetryCooldown() {
	d.mu.Lock()
	d.state.coolingDown = true
	d.state.cooldownDeadline = time.Now().Add(d.cfg.RetryCooldown)
	d.mu.Unlock()
}

// handleOrderUpdate forwards every update to the strategy and, on a Main
// leg's Filled transition with a pending bracket request, places the
// take-profit/stop-loss legs.
func (d *Dispatcher) handleOrderUpdate(ctx context.Context, o domain.ManagedOrder) {
	d.strat.OnOrderUpdate(o)

	if o.Role != domain.RoleMain || o.State != domain.StateFilled {
		return
	}

	d.mu.Lock()
	pb, ok := d.pendingBrackets[o.ClientOrderID]
	if ok {
		delete(d.pendingBrackets, o.ClientOrderID)
	}
	d.mu.Unlock()
	if !ok {
		return
	}

	go d.placeBracketLegs(ctx, o, pb)
}

// placeBracketLegs places the reduce-only take-profit and stop-loss orders
// and links them as an OCO pair once both acknowledge.
func (d *Dispatcher) placeBracketLegs(ctx context.Context, main domain.ManagedOrder, pb pendingBracket) {
	exitSide := pb.side.Opposite()

	tp := domain.OrderIntent{
		Asset:         pb.asset,
		Side:          exitSide,
		Size:          pb.size,
		Kind:          domain.OrderLimit,
		Price:         pb.bracket.TakeProfitPrice,
		ReduceOnly:    true,
		TimeInForce:   d.cfg.DefaultTIF,
		ClientOrderID: uuid.NewString(),
	}
	sl := domain.OrderIntent{
		Asset:         pb.asset,
		Side:          exitSide,
		Size:          pb.size,
		Kind:          domain.OrderStopMarket,
		StopPrice:     pb.bracket.StopLossPrice,
		ReduceOnly:    true,
		TimeInForce:   d.cfg.DefaultTIF,
		ClientOrderID: uuid.NewString(),
	}
	if pb.bracket.TrailAmount != 0 {
		sl.Kind = domain.OrderTrailingStop
		sl.TrailAmount = pb.bracket.TrailAmount
	}

	d.pos.RegisterPending(tp.ClientOrderID, pb.asset, domain.RoleTakeProfit)
	d.pos.RegisterPending(sl.ClientOrderID, pb.asset, domain.RoleStopLoss)

	tpAck, tpErr := d.rest.PlaceOrder(ctx, tp, d.cfg.ProductID)
	if tpErr != nil {
		d.pos.CancelPending(tp.ClientOrderID)
		log.Printf("dispatch: take-profit leg failed: %v", tpErr)
	}
	slAck, slErr := d.rest.PlaceOrder(ctx, sl, d.cfg.ProductID)
	if slErr != nil {
		d.pos.CancelPending(sl.ClientOrderID)
		log.Printf("dispatch: stop-loss leg failed: %v", slErr)
	}
	if tpErr == nil && slErr == nil {
		d.pos.LinkBracket(main.ExchangeID, tpAck.ExchangeOrderID, slAck.ExchangeOrderID)
	}
}

// handlePositionUpdate detects the nonzero-to-zero transition that starts a
// cooldown (I5: anchor_price is cleared on cooldown entry) and forwards the
// update to the strategy.
func (d *Dispatcher) handlePositionUpdate(p domain.Position) {
	d.mu.Lock()
	wasFlat := d.state.lastKnownPosition.Flat()
	d.state.lastKnownPosition = p
	if !wasFlat && p.Flat() {
		d.state.coolingDown = true
		d.state.cooldownDeadline = time.Now().Add(d.cfg.CooldownPeriod)
		d.state.anchorPrice = nil
	}
	d.mu.Unlock()

	d.strat.OnPositionUpdate(p)
}

// --- strategy.Facade ---

// PlaceOrder lets a strategy managing an already-open position submit an
// order directly; it is routed through the same place() path, so
// in_flight_intent is set while it is outstanding.
func (d *Dispatcher) PlaceOrder(intent domain.OrderIntent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return d.place(ctx, intent)
}

// GetL1Book returns the last-seen lagger-venue top-of-book snapshot.
func (d *Dispatcher) GetL1Book(asset string) domain.OrderBookL1 {
	return d.sess.BookL1()
}

// RegisterPending exposes the posstate pending-order registry to strategies
// that mint their own client_order_id ahead of a direct PlaceOrder call.
func (d *Dispatcher) RegisterPending(clientOrderID, asset string, role domain.OrderRole) {
	d.pos.RegisterPending(clientOrderID, asset, role)
}

// StartCooldown lets a strategy force a cooldown outside the normal
// position-close trigger (e.g. after a manual flatten).
func (d *Dispatcher) StartCooldown(asset string) {
	d.mu.Lock()
	d.state.coolingDown = true
	d.state.cooldownDeadline = time.Now().Add(d.cfg.CooldownPeriod)
	d.state.anchorPrice = nil
	d.mu.Unlock()
}

// HasOpenPosition reports the optimistic-true-only flag from posstate.
func (d *Dispatcher) HasOpenPosition(asset string) bool {
	return d.pos.HasOpenPosition()
}
