package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"execution-core/internal/domain"
)

// Bybit connects to Bybit's public linear-perpetual ticker stream.
type Bybit struct {
	WSURL string // default: wss://stream.bybit.com/v5/public/linear
}

// NewBybit builds a Bybit adapter with the production linear endpoint.
func NewBybit() *Bybit {
	return &Bybit{WSURL: "wss://stream.bybit.com/v5/public/linear"}
}

func (b *Bybit) Name() string { return "bybit" }

type bybitSubscribe struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type bybitEnvelope struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Op    string          `json:"op"`
}

type bybitTicker struct {
	Symbol    string `json:"symbol"`
	Bid1Price string `json:"bid1Price"`
	Bid1Size  string `json:"bid1Size"`
	Ask1Price string `json:"ask1Price"`
	Ask1Size  string `json:"ask1Size"`
	LastPrice string `json:"lastPrice"`
}

func (b *Bybit) Run(ctx context.Context, assets []string, emit func(domain.TickEvent)) error {
	conn, err := dial(ctx, b.WSURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	args := make([]string, 0, len(assets))
	for _, a := range assets {
		args = append(args, "tickers."+strings.ToUpper(a)+"USDT")
	}
	if err := conn.WriteJSON(bybitSubscribe{Op: "subscribe", Args: args}); err != nil {
		return fmt.Errorf("bybit subscribe: %w", err)
	}

	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.WriteJSON(map[string]string{"op": "ping"})
			case <-stopPing:
				return
			}
		}
	}()

	return readLoop(ctx, conn, func(raw []byte) error {
		var env bybitEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			// malformed frame: logged and dropped, not fatal
			log.Printf("bybit: malformed frame, dropped: %v", err)
			return nil
		}
		if env.Op == "pong" || env.Op == "ping" || env.Topic == "" {
			return nil
		}
		var t bybitTicker
		if err := json.Unmarshal(env.Data, &t); err != nil || t.Symbol == "" {
			return nil
		}
		asset := strings.TrimSuffix(t.Symbol, "USDT")
		bid, _ := strconv.ParseFloat(t.Bid1Price, 64)
		bidQty, _ := strconv.ParseFloat(t.Bid1Size, 64)
		ask, _ := strconv.ParseFloat(t.Ask1Price, 64)
		askQty, _ := strconv.ParseFloat(t.Ask1Size, 64)
		if bid == 0 && ask == 0 {
			return nil
		}
		emit(domain.TickEvent{
			Asset:     asset,
			Source:    b.Name(),
			Kind:      domain.TickDepthL1,
			Bid:       bid,
			BidQty:    bidQty,
			Ask:       ask,
			AskQty:    askQty,
			Timestamp: time.Now(),
		})
		return nil
	})
}
