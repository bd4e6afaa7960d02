package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"execution-core/internal/domain"
)

// GateIO connects to Gate.io futures order-book-update channel and maintains
// an incremental local L2 book per asset, detecting U/u sequence gaps. A gap
// beyond last_u+1 forces the whole connection to be torn down (returned as
// an error) so the Manager's reconnect loop re-subscribes and absorbs a
// fresh snapshot; ticks are not emitted for an asset while its book is
// ungapped-but-unready.
type GateIO struct {
	WSURL string // default: wss://fx-ws.gateio.ws/v4/ws/usdt
}

// NewGateIO builds a GateIO adapter with the production USDT-margined endpoint.
func NewGateIO() *GateIO {
	return &GateIO{WSURL: "wss://fx-ws.gateio.ws/v4/ws/usdt"}
}

func (g *GateIO) Name() string { return "gateio" }

type gateioSubscribe struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event"`
	Payload []string `json:"payload"`
}

type gateioFrame struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Result  json.RawMessage `json:"result"`
}

type gateioBookUpdate struct {
	S  string        `json:"s"` // contract symbol
	U  int64         `json:"U"` // first update id in this event (snapshot start)
	UU int64         `json:"u"` // last update id in this event
	B  []gateioLevel `json:"b"`
	A  []gateioLevel `json:"a"`
}

type gateioLevel struct {
	P string `json:"p"`
	S string `json:"s"`
}

type localBook struct {
	bids, asks map[float64]float64
	lastU      int64
	ready      bool
}

func (g *GateIO) Run(ctx context.Context, assets []string, emit func(domain.TickEvent)) error {
	conn, err := dial(ctx, g.WSURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	contracts := make([]string, 0, len(assets))
	for _, a := range assets {
		contracts = append(contracts, strings.ToUpper(a)+"_USDT")
	}
	sub := gateioSubscribe{
		Time:    time.Now().Unix(),
		Channel: "futures.order_book_update",
		Event:   "subscribe",
		Payload: append(contracts, "20", "100ms"),
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("gateio subscribe: %w", err)
	}

	books := make(map[string]*localBook)

	return readLoop(ctx, conn, func(raw []byte) error {
		var frame gateioFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil
		}
		if frame.Channel != "futures.order_book_update" || len(frame.Result) == 0 {
			return nil
		}
		var upd gateioBookUpdate
		if err := json.Unmarshal(frame.Result, &upd); err != nil || upd.S == "" {
			return nil
		}

		book, ok := books[upd.S]
		if !ok {
			book = &localBook{bids: map[float64]float64{}, asks: map[float64]float64{}}
			books[upd.S] = book
		}

		if book.lastU != 0 && upd.U > book.lastU+1 {
			// Sequence gap: the local book is no longer trustworthy. Forcing
			// a full reconnect is the simplest way to obtain a fresh
			// snapshot with a clean U/u chain.
			return fmt.Errorf("gateio: sequence gap on %s: want U<=%d, got U=%d", upd.S, book.lastU+1, upd.U)
		}

		applyLevels(book.bids, upd.B)
		applyLevels(book.asks, upd.A)
		book.lastU = upd.UU
		book.ready = true

		bestBid, bidQty := topOfBook(book.bids, true)
		bestAsk, askQty := topOfBook(book.asks, false)
		if bestBid == 0 && bestAsk == 0 {
			return nil
		}
		asset := strings.TrimSuffix(upd.S, "_USDT")
		emit(domain.TickEvent{
			Asset:     asset,
			Source:    g.Name(),
			Kind:      domain.TickDepthL1,
			Bid:       bestBid,
			BidQty:    bidQty,
			Ask:       bestAsk,
			AskQty:    askQty,
			Timestamp: time.Now(),
		})
		return nil
	})
}

func applyLevels(side map[float64]float64, levels []gateioLevel) {
	for _, lvl := range levels {
		p, err := strconv.ParseFloat(lvl.P, 64)
		if err != nil {
			continue
		}
		size, _ := strconv.ParseFloat(lvl.S, 64)
		if size == 0 {
			delete(side, p)
			continue
		}
		side[p] = size
	}
}

func topOfBook(side map[float64]float64, highestWins bool) (price, qty float64) {
	if len(side) == 0 {
		return 0, 0
	}
	prices := make([]float64, 0, len(side))
	for p := range side {
		prices = append(prices, p)
	}
	sort.Float64s(prices)
	if highestWins {
		best := prices[len(prices)-1]
		return best, side[best]
	}
	best := prices[0]
	return best, side[best]
}
