package momentum

import (
	"testing"

	"execution-core/internal/domain"
)

func warmUptrend(s *Strategy, asset string, n int, start float64) *domain.OrderIntent {
	var intent *domain.OrderIntent
	price := start
	for i := 0; i < n; i++ {
		intent = s.OnPriceUpdate(asset, price, 1)
		price++
	}
	return intent
}

func TestOnPriceUpdateBuysOnUptrendWhenRSIFilterIsOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Asset = "BTC"
	cfg.OrderSize = 1
	cfg.TakeProfitOffset = 10
	cfg.StopLossOffset = 5
	cfg.RSIOverbought = 1000 // disable the overbought filter for this case (RSI tops out at 100)
	s := New(cfg)

	intent := warmUptrend(s, "BTC", cfg.LongMA+2, 100)
	if intent == nil {
		t.Fatalf("expected an intent once the short MA crosses above the long MA")
	}
	if intent.Side != domain.SideBuy {
		t.Fatalf("side = %v, want Buy", intent.Side)
	}
	if intent.Bracket == nil {
		t.Fatalf("expected a bracket to be attached")
	}
	if intent.Bracket.TakeProfitPrice <= intent.Bracket.StopLossPrice {
		t.Fatalf("take-profit (%v) should sit above stop-loss (%v) for a buy", intent.Bracket.TakeProfitPrice, intent.Bracket.StopLossPrice)
	}
}

func TestOnPriceUpdateRejectsOverboughtBuy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Asset = "BTC"
	s := New(cfg)

	// A straight uptrend drives RSI to 100, at or above the default
	// overbought threshold (70), so the buy signal the SMA cross would
	// otherwise emit must be suppressed.
	intent := warmUptrend(s, "BTC", cfg.LongMA+cfg.RSIPeriod+2, 100)
	if intent != nil {
		t.Fatalf("expected the overbought filter to suppress the buy, got %+v", intent)
	}
}

func TestOnPositionUpdateTracksFlatness(t *testing.T) {
	s := New(DefaultConfig())
	s.OnPositionUpdate(domain.Position{Asset: "BTC", Size: 2})
	s.mu.Lock()
	inMarket := s.inMarket
	s.mu.Unlock()
	if !inMarket {
		t.Fatalf("expected inMarket after a non-flat position update")
	}

	s.OnPositionUpdate(domain.Position{Asset: "BTC", Size: 0})
	s.mu.Lock()
	inMarket = s.inMarket
	s.mu.Unlock()
	if inMarket {
		t.Fatalf("expected !inMarket after a flat position update")
	}
}

func TestOnDepthUpdateFeedsIndicatorFromMicroprice(t *testing.T) {
	s := New(DefaultConfig())
	book := domain.OrderBookL1{BestBid: 99, BidQty: 1, BestAsk: 101, AskQty: 1}
	s.OnDepthUpdate("BTC", book)

	s.ind.mu.Lock()
	n := len(s.ind.prices["BTC"])
	s.ind.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected one sample recorded from a depth update, got %d", n)
	}
}
