// Package adapter holds one leader-venue connector per supported exchange.
// Each adapter dials a public websocket feed, subscribes to the configured
// assets, and emits normalized domain.TickEvent values. Grounded on the
// teacher's pkg/market/binance/websocket.go StreamClient dial/read loop,
// generalized to a pluggable per-venue Run(ctx, assets, emit) shape.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// dial opens a websocket connection with a bounded handshake timeout.
func dial(ctx context.Context, url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// readLoop reads frames until ctx is done or the connection errors, handing
// each raw message to handle. It also closes the connection on ctx.Done so
// a blocked ReadMessage call unblocks promptly.
func readLoop(ctx context.Context, conn *websocket.Conn, handle func([]byte) error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := handle(msg); err != nil {
			return err
		}
	}
}
