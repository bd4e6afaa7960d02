package grpcstrategy

import (
	"context"
	"net"
	"testing"

	"execution-core/internal/domain"
	pb "execution-core/proto"

	"google.golang.org/grpc"
)

type stubWorker struct {
	pb.UnimplementedStrategyServiceServer
	decision *pb.StrategyDecision
}

func (w *stubWorker) OnTick(ctx context.Context, in *pb.TickData) (*pb.StrategyDecision, error) {
	return w.decision, nil
}

func startWorker(t *testing.T, decision *pb.StrategyDecision) (addr string, stop func()) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	pb.RegisterStrategyServiceServer(srv, &stubWorker{decision: decision})
	go srv.Serve(lis)
	return lis.Addr().String(), srv.Stop
}

func TestOnPriceUpdateTranslatesBuyDecisionIntoIntent(t *testing.T) {
	addr, stop := startWorker(t, &pb.StrategyDecision{
		Action:          "buy",
		Size:            2,
		TakeProfitPrice: 110,
		StopLossPrice:   95,
	})
	defer stop()

	s, err := Dial(Config{Addr: addr, Asset: "BTC", OrderSize: 1})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer s.Close()

	intent := s.OnPriceUpdate("BTC", 100, 1)
	if intent == nil {
		t.Fatalf("expected a non-nil intent for a buy decision")
	}
	if intent.Side != domain.SideBuy {
		t.Fatalf("side = %v, want Buy", intent.Side)
	}
	if intent.Size != 2 {
		t.Fatalf("size = %v, want 2 (from the worker reply, not the default)", intent.Size)
	}
	if intent.Bracket == nil || intent.Bracket.TakeProfitPrice != 110 || intent.Bracket.StopLossPrice != 95 {
		t.Fatalf("bracket not translated correctly: %+v", intent.Bracket)
	}
}

func TestOnPriceUpdateHoldYieldsNoIntent(t *testing.T) {
	addr, stop := startWorker(t, &pb.StrategyDecision{Action: "hold"})
	defer stop()

	s, err := Dial(Config{Addr: addr, Asset: "BTC", OrderSize: 1})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer s.Close()

	if intent := s.OnPriceUpdate("BTC", 100, 1); intent != nil {
		t.Fatalf("expected nil intent for a hold decision, got %+v", intent)
	}
}

func TestOnPriceUpdateDefaultsSizeWhenWorkerOmitsIt(t *testing.T) {
	addr, stop := startWorker(t, &pb.StrategyDecision{Action: "sell"})
	defer stop()

	s, err := Dial(Config{Addr: addr, Asset: "BTC", OrderSize: 5})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer s.Close()

	intent := s.OnPriceUpdate("BTC", 100, 1)
	if intent == nil {
		t.Fatalf("expected a non-nil intent for a sell decision")
	}
	if intent.Size != 5 {
		t.Fatalf("size = %v, want the configured default 5", intent.Size)
	}
}
