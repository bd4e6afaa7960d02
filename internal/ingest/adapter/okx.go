package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"execution-core/internal/domain"
)

// OKX connects to OKX's public swap tickers channel.
type OKX struct {
	WSURL string // default: wss://ws.okx.com:8443/ws/v5/public
}

// NewOKX builds an OKX adapter with the production endpoint.
func NewOKX() *OKX {
	return &OKX{WSURL: "wss://ws.okx.com:8443/ws/v5/public"}
}

func (o *OKX) Name() string { return "okx" }

type okxArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type okxSubscribe struct {
	Op   string   `json:"op"`
	Args []okxArg `json:"args"`
}

type okxEnvelope struct {
	Arg  okxArg            `json:"arg"`
	Data []okxTickerFields `json:"data"`
	Event string           `json:"event"`
}

type okxTickerFields struct {
	InstID  string `json:"instId"`
	Last    string `json:"last"`
	BidPx   string `json:"bidPx"`
	BidSz   string `json:"bidSz"`
	AskPx   string `json:"askPx"`
	AskSz   string `json:"askSz"`
	TS      string `json:"ts"`
}

func (o *OKX) Run(ctx context.Context, assets []string, emit func(domain.TickEvent)) error {
	conn, err := dial(ctx, o.WSURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	args := make([]okxArg, 0, len(assets))
	for _, a := range assets {
		args = append(args, okxArg{Channel: "tickers", InstID: strings.ToUpper(a) + "-USDT-SWAP"})
	}
	if err := conn.WriteJSON(okxSubscribe{Op: "subscribe", Args: args}); err != nil {
		return err
	}

	return readLoop(ctx, conn, func(raw []byte) error {
		if string(raw) == "pong" {
			return nil
		}
		var env okxEnvelope
		if err := json.Unmarshal(raw, &env); err != nil || len(env.Data) == 0 {
			return nil
		}
		for _, d := range env.Data {
			asset := strings.TrimSuffix(strings.TrimSuffix(d.InstID, "-SWAP"), "-USDT")
			bid, _ := strconv.ParseFloat(d.BidPx, 64)
			bidQty, _ := strconv.ParseFloat(d.BidSz, 64)
			ask, _ := strconv.ParseFloat(d.AskPx, 64)
			askQty, _ := strconv.ParseFloat(d.AskSz, 64)
			if bid == 0 && ask == 0 {
				continue
			}
			emit(domain.TickEvent{
				Asset:     asset,
				Source:    o.Name(),
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
