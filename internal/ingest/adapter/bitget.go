package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"execution-core/internal/domain"
)

// Bitget connects to Bitget's public USDT-margined futures ticker channel.
// Field and const naming follows Bitget's V2 API conventions (product type
// "USDT-FUTURES", instId without a dash).
type Bitget struct {
	WSURL string // default: wss://ws.bitget.com/v2/ws/public
}

// NewBitget builds a Bitget adapter with the production endpoint.
func NewBitget() *Bitget {
	return &Bitget{WSURL: "wss://ws.bitget.com/v2/ws/public"}
}

func (bg *Bitget) Name() string { return "bitget" }

type bitgetArg struct {
	InstType string `json:"instType"`
	Channel  string `json:"channel"`
	InstID   string `json:"instId"`
}

type bitgetSubscribe struct {
	Op   string      `json:"op"`
	Args []bitgetArg `json:"args"`
}

type bitgetEnvelope struct {
	Action string            `json:"action"`
	Arg    bitgetArg         `json:"arg"`
	Data   []bitgetTickerRow `json:"data"`
}

type bitgetTickerRow struct {
	InstID    string `json:"instId"`
	LastPr    string `json:"lastPr"`
	BidPr     string `json:"bidPr"`
	BidSz     string `json:"bidSz"`
	AskPr     string `json:"askPr"`
	AskSz     string `json:"askSz"`
	Timestamp string `json:"ts"`
}

func (bg *Bitget) Run(ctx context.Context, assets []string, emit func(domain.TickEvent)) error {
	conn, err := dial(ctx, bg.WSURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	args := make([]bitgetArg, 0, len(assets))
	for _, a := range assets {
		args = append(args, bitgetArg{
			InstType: "USDT-FUTURES",
			Channel:  "ticker",
			InstID:   strings.ToUpper(a) + "USDT",
		})
	}
	if err := conn.WriteJSON(bitgetSubscribe{Op: "subscribe", Args: args}); err != nil {
		return err
	}

	return readLoop(ctx, conn, func(raw []byte) error {
		if string(raw) == "pong" {
			return nil
		}
		var env bitgetEnvelope
		if err := json.Unmarshal(raw, &env); err != nil || len(env.Data) == 0 {
			return nil
		}
		for _, row := range env.Data {
			asset := strings.TrimSuffix(row.InstID, "USDT")
			bid, _ := strconv.ParseFloat(row.BidPr, 64)
			bidQty, _ := strconv.ParseFloat(row.BidSz, 64)
			ask, _ := strconv.ParseFloat(row.AskPr, 64)
			askQty, _ := strconv.ParseFloat(row.AskSz, 64)
			if bid == 0 && ask == 0 {
				continue
			}
			emit(domain.TickEvent{
				Asset:     asset,
				Source:    bg.Name(),
				Kind:      domain.TickDepthL1,
				Bid:       bid,
				BidQty:    bidQty,
				Ask:       ask,
				AskQty:    askQty,
				Timestamp: time.Now(),
			})
		}
		return nil
	})
}
