package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"execution-core/internal/domain"
)

// BinanceFutures connects to Binance USDT-M futures combined trade streams.
type BinanceFutures struct {
	WSBase string // default: wss://fstream.binance.com/stream
}

// NewBinanceFutures builds a BinanceFutures adapter with the production host.
func NewBinanceFutures() *BinanceFutures {
	return &BinanceFutures{WSBase: "wss://fstream.binance.com/stream"}
}

func (bf *BinanceFutures) Name() string { return "binance_futures" }

type binanceCombinedFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type binanceAggTrade struct {
	Symbol       string `json:"s"`
	Price        string `json:"p"`
	Qty          string `json:"q"`
	IsBuyerMaker bool   `json:"m"`
	EventTime    int64  `json:"E"`
}

func (bf *BinanceFutures) Run(ctx context.Context, assets []string, emit func(domain.TickEvent)) error {
	streams := make([]string, 0, len(assets))
	for _, a := range assets {
		streams = append(streams, strings.ToLower(a)+"usdt@aggTrade")
	}
	url := fmt.Sprintf("%s?streams=%s", bf.WSBase, strings.Join(streams, "/"))

	conn, err := dial(ctx, url)
	if err != nil {
		return err
	}
	defer conn.Close()

	return readLoop(ctx, conn, func(raw []byte) error {
		var frame binanceCombinedFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil
		}
		var trade binanceAggTrade
		if err := json.Unmarshal(frame.Data, &trade); err != nil || trade.Symbol == "" {
			return nil
		}
		asset := strings.TrimSuffix(strings.ToUpper(trade.Symbol), "USDT")
		price, _ := strconv.ParseFloat(trade.Price, 64)
		qty, _ := strconv.ParseFloat(trade.Qty, 64)
		side := domain.SideBuy
		if trade.IsBuyerMaker {
			side = domain.SideSell
		}
		emit(domain.TickEvent{
			Asset:         asset,
			Source:        bf.Name(),
			Kind:          domain.TickTrade,
			Price:         price,
			Size:          qty,
			AggressorSide: side,
			Timestamp:     time.UnixMilli(trade.EventTime),
		})
		return nil
	})
}
