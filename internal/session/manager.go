package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"execution-core/internal/domain"
	"execution-core/internal/events"

	"github.com/gorilla/websocket"
)

// Manager maintains exactly one authenticated, subscribed, heartbeated
// connection to the lagger venue and surfaces typed events on the bus:
// AuthOk, BookL1, raw order updates, raw position updates, Heartbeat and
// Disconnected. It publishes no position snapshot; posstate turns the raw
// updates into OrderUpdate/PositionUpdate and produces the snapshot from REST.
type Manager struct {
	cfg Config
	bus *events.Bus

	mu           sync.RWMutex
	authenticated bool
	bookReady    bool
	book         domain.OrderBookL1
}

// NewManager builds a session Manager.
func NewManager(cfg Config, bus *events.Bus) *Manager {
	return &Manager{cfg: cfg, bus: bus}
}

// Authenticated reports whether the current connection has completed the
// auth handshake.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authenticated
}

// BookReady reports whether at least one L1 book update has been received on
// the current connection.
func (m *Manager) BookReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookReady
}

// BookL1 returns the last-seen top-of-book snapshot.
func (m *Manager) BookL1() domain.OrderBookL1 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.book
}

// Run owns the reconnect loop: connect, authenticate, subscribe, heartbeat,
// read until error, then wait reconnect_interval and retry, forever until
// ctx is cancelled. Any loss of connectivity invalidates derived caches.
func (m *Manager) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := m.runOnce(ctx); err != nil {
			log.Printf("session: disconnected: %v", err)
		}

		m.mu.Lock()
		m.authenticated = false
		m.bookReady = false
		m.mu.Unlock()
		m.bus.Publish(events.TopicSessionDisconnect, nil)

		select {
		case <-time.After(m.cfg.ReconnectInterval):
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) runOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, m.cfg.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := m.authenticate(conn); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	lastPong := make(chan struct{}, 1)
	lastPong <- struct{}{}

	stop := make(chan struct{})
	defer close(stop)

	go m.pingLoop(ctx, conn, stop)
	watchdogDone := make(chan error, 1)
	pongSeen := make(chan struct{}, 16)
	go m.watchdog(ctx, stop, pongSeen, watchdogDone)

	readErr := make(chan error, 1)
	go func() {
		readErr <- m.readLoop(ctx, conn, pongSeen)
	}()

	select {
	case err := <-readErr:
		return err
	case err := <-watchdogDone:
		_ = conn.Close()
		<-readErr
		return err
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

func (m *Manager) authenticate(conn *websocket.Conn) error {
	now := time.Now().Unix()
	preHash := "GET" + strconv.FormatInt(now, 10) + "/live"
	sig := hmacSHA256Hex(m.cfg.APISecret, preHash)

	frame := authFrame{
		Type: "auth",
		Payload: authFramePayload{
			APIKey:    m.cfg.APIKey,
			Timestamp: now,
			Signature: sig,
		},
	}
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("send auth frame: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read auth response: %w", err)
		}
		var resp inboundFrame
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		if resp.Type == "success" || resp.Message == "Authenticated" {
			break
		}
		if resp.Type == "error" {
			return fmt.Errorf("auth rejected: %s", resp.Message)
		}
	}

	m.mu.Lock()
	m.authenticated = true
	m.mu.Unlock()
	m.bus.Publish(events.TopicSessionAuthOk, nil)

	sub := subscribeFrame{
		Type: "subscribe",
		Payload: subscribePayload{
			Channels: []channelSpec{
				{Name: "orders", Symbols: nil},
				{Name: "positions", Symbols: nil},
				{Name: "l1_orderbook", Symbols: []string{m.cfg.Asset}},
			},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("send subscribe frame: %w", err)
	}
	return nil
}

func (m *Manager) pingLoop(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = conn.WriteJSON(map[string]string{"type": "ping"})
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// watchdog terminates the session if no pong/heartbeat is observed within
// HeartbeatTimeout of the last one.
func (m *Manager) watchdog(ctx context.Context, stop <-chan struct{}, pongSeen <-chan struct{}, done chan<- error) {
	timer := time.NewTimer(m.cfg.HeartbeatTimeout)
	defer timer.Stop()
	for {
		select {
		case <-pongSeen:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(m.cfg.HeartbeatTimeout)
		case <-timer.C:
			done <- fmt.Errorf("heartbeat watchdog expired after %v", m.cfg.HeartbeatTimeout)
			return
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn, pongSeen chan<- struct{}) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		m.handleMessage(msg, pongSeen)
	}
}

func (m *Manager) handleMessage(msg []byte, pongSeen chan<- struct{}) {
	var frame inboundFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		log.Printf("session: malformed frame, dropped: %v", err)
		return
	}

	switch frame.Type {
	case "pong", "heartbeat":
		select {
		case pongSeen <- struct{}{}:
		default:
		}
		m.bus.Publish(events.TopicSessionHeartbeat, nil)
	case "l1_orderbook":
		book := domain.OrderBookL1{
			BestBid:   frame.BestBid,
			BidQty:    frame.BidQty,
			BestAsk:   frame.BestAsk,
			AskQty:    frame.AskQty,
			UpdatedAt: time.Now(),
		}
		m.mu.Lock()
		m.book = book
		m.bookReady = true
		m.mu.Unlock()
		m.bus.Publish(events.TopicSessionBookL1, book)
	case "orders":
		for _, o := range frame.Data {
			m.bus.Publish(events.TopicRawOrderUpdate, toManagedOrder(o))
		}
	case "positions":
		pos := domain.Position{
			Asset:         frame.ProductSymbol,
			Size:          frame.Size,
			AvgEntryPrice: frame.EntryPrice,
			LastUpdate:    time.Now(),
		}
		m.bus.Publish(events.TopicRawPositionUpdate, pos)
	default:
		// unknown event type: logged and dropped, connection stays up
		log.Printf("session: unknown frame type %q, dropped", frame.Type)
	}
}

func toManagedOrder(w wireOrderUpdate) domain.ManagedOrder {
	return domain.ManagedOrder{
		ExchangeID:          w.ID,
		ClientOrderID:       w.ClientOrderID,
		ParentClientOrderID: w.ParentClientOrderID,
		State:               toOrderState(w.State),
	}
}

func toOrderState(s string) domain.OrderState {
	switch s {
	case "open", "pending", "partially_filled":
		return domain.StateWorking
	case "filled":
		return domain.StateFilled
	case "cancelled":
		return domain.StateCancelled
	case "rejected":
		return domain.StateRejected
	default:
		return domain.StatePending
	}
}
