// Package grpcstrategy is a Strategy implementation that delegates
// on_price_update decisions to an external worker process over gRPC — the
// concrete mechanism behind "the individual quantitative strategies'
// formulae are pluggable and substitutable" (spec §1). Grounded on the
// teacher's internal/strategy/grpc_client.go (WorkerClient, OnTick RPC,
// symbol/price/indicators request shape) and python_bridge.go (the
// bot-side adapter that turns a worker reply into a trading decision).
package grpcstrategy

import (
	"context"
	"log"
	"time"

	"execution-core/internal/domain"
	pb "execution-core/proto"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Strategy forwards admitted ticks to a gRPC worker and translates its
// reply into an OrderIntent. It implements internal/strategy.Strategy.
type Strategy struct {
	conn   *grpc.ClientConn
	client pb.StrategyServiceClient

	asset            string
	orderSize        float64
	defaultTIF       domain.TimeInForce
}

// Config holds the worker address and the instrument defaults applied to
// every intent the worker's decision is translated into.
type Config struct {
	Addr      string
	Asset     string
	OrderSize float64
}

// Dial connects to the worker process. The connection is lazy
// (grpc.NewClient does not block); failures surface as RPC errors on the first OnTick call,
// at which point OnPriceUpdate logs and returns nil rather than blocking
// the dispatcher's gated section.
func Dial(cfg Config) (*Strategy, error) {
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Strategy{
		conn:       conn,
		client:     pb.NewStrategyServiceClient(conn),
		asset:      cfg.Asset,
		orderSize:  cfg.OrderSize,
		defaultTIF: domain.TIFGTC,
	}, nil
}

// Close releases the underlying gRPC connection.
func (s *Strategy) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Strategy) Name() string { return "grpc-worker" }

// OnPriceUpdate forwards the urgency-window breach to the worker and
// translates an "buy"/"sell" decision into an entry OrderIntent with a
// bracket; "hold" (or any RPC error) yields no intent.
func (s *Strategy) OnPriceUpdate(asset string, price, priceDiff float64) *domain.OrderIntent {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := s.client.OnTick(ctx, &pb.TickData{
		Symbol:    asset,
		Price:     price,
		PriceDiff: priceDiff,
	})
	if err != nil {
		log.Printf("grpcstrategy: worker OnTick failed: %v", err)
		return nil
	}

	var side domain.Side
	switch resp.Action {
	case "buy":
		side = domain.SideBuy
	case "sell":
		side = domain.SideSell
	default:
		return nil
	}

	size := resp.Size
	if size <= 0 {
		size = s.orderSize
	}

	var bracket *domain.Bracket
	if resp.TakeProfitPrice > 0 || resp.StopLossPrice > 0 {
		bracket = &domain.Bracket{
			TakeProfitPrice: resp.TakeProfitPrice,
			StopLossPrice:   resp.StopLossPrice,
			Trigger:         domain.TriggerLastTrade,
		}
	}

	return &domain.OrderIntent{
		Side:        side,
		Size:        size,
		Kind:        domain.OrderMarket,
		TimeInForce: s.defaultTIF,
		Bracket:     bracket,
	}
}

// OnDepthUpdate is a no-op: the worker only reacts to the urgency-window
// price path in this adapter, matching python_bridge.go's scope.
func (s *Strategy) OnDepthUpdate(asset string, book domain.OrderBookL1) {}

// OnPositionUpdate is a no-op; the worker is stateless across calls in this
// adapter and relies on the dispatcher for position gating.
func (s *Strategy) OnPositionUpdate(pos domain.Position) {}

// OnOrderUpdate is a no-op; this adapter does not co-manage bracket
// children from the worker side.
func (s *Strategy) OnOrderUpdate(order domain.ManagedOrder) {}
