// Package session is the Exchange Session Manager for the lagger venue: one
// authenticated, subscribed, heartbeated WebSocket connection, surfacing
// typed events to the position/order state layer. Grounded on the teacher's
// internal/order/user_stream_futures.go (listen-key lifecycle, keepalive
// ticker, reader goroutine, reconnect-on-error), generalized from Binance's
// listen-key model to the lagger venue's HMAC auth-frame model.
package session

import "time"

// Config holds everything the Manager needs to authenticate and subscribe.
type Config struct {
	WSURL            string
	APIKey           string
	APISecret        string
	Asset            string
	PingInterval     time.Duration
	HeartbeatTimeout time.Duration
	ReconnectInterval time.Duration
}

// DefaultConfig applies the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		PingInterval:      30 * time.Second,
		HeartbeatTimeout:  40 * time.Second,
		ReconnectInterval: 5 * time.Second,
	}
}

// authFrame is the outbound authentication message.
type authFrame struct {
	Type    string        `json:"type"`
	Payload authFramePayload `json:"payload"`
}

type authFramePayload struct {
	APIKey    string `json:"api_key"`
	Timestamp int64  `json:"timestamp_seconds"`
	Signature string `json:"signature"`
}

type subscribeFrame struct {
	Type    string          `json:"type"`
	Payload subscribePayload `json:"payload"`
}

type subscribePayload struct {
	Channels []channelSpec `json:"channels"`
}

type channelSpec struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
}

// inboundFrame is the outer shape of every lagger WS message; fields not
// relevant to a given Type are simply left zero.
type inboundFrame struct {
	Type          string            `json:"type"`
	Message       string            `json:"message"`
	Data          []wireOrderUpdate `json:"data"`
	ProductSymbol string            `json:"product_symbol"`
	Size          float64           `json:"size"`
	EntryPrice    float64           `json:"entry_price"`
	BestBid       float64           `json:"best_bid"`
	BidQty        float64           `json:"bid_qty"`
	BestAsk       float64           `json:"best_ask"`
	AskQty        float64           `json:"ask_qty"`
	Symbol        string            `json:"symbol"`
}

// wireOrderUpdate is one entry of a {type:"orders", data:[...]} frame.
type wireOrderUpdate struct {
	ID                  string `json:"id"`
	ClientOrderID       string `json:"client_order_id"`
	State               string `json:"state"`
	AvgFillPrice        string `json:"avg_fill_price"`
	Side                string `json:"side"`
	ProductID           int    `json:"product_id"`
	OrderType           string `json:"order_type"`
	ParentClientOrderID string `json:"parent_client_order_id"`
}
