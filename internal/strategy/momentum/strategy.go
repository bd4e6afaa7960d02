package momentum

import (
	"sync"

	"execution-core/internal/domain"
)

// Config holds the bracket offsets and indicator windows the momentum
// strategy needs; sourced from the engine's environment configuration.
type Config struct {
	Asset            string
	OrderSize        float64
	TakeProfitOffset float64
	StopLossOffset   float64
	TrailAmount      float64
	ShortMA          int
	LongMA           int
	RSIPeriod        int
	RSIOverbought    float64
	RSIOversold      float64
}

// DefaultConfig fills in the indicator windows the spec leaves unspecified
// (the formulae themselves are out of the execution core's scope).
func DefaultConfig() Config {
	return Config{ShortMA: 5, LongMA: 20, RSIPeriod: 14, RSIOverbought: 70, RSIOversold: 30}
}

// Strategy is a momentum-follow entry: on an urgency-window breach it takes
// its side from the SMA cross (buy when the short MA is at or above the long
// MA, sell otherwise), suppresses overbought buys and oversold sells with an
// RSI filter, and always requests a fixed take-profit/stop-loss bracket.
type Strategy struct {
	cfg Config
	ind *indicatorEngine

	mu       sync.Mutex
	inMarket bool
}

// New builds a momentum Strategy.
func New(cfg Config) *Strategy {
	return &Strategy{
		cfg: cfg,
		ind: newIndicatorEngine(cfg.ShortMA, cfg.LongMA, cfg.RSIPeriod, cfg.LongMA+cfg.RSIPeriod),
	}
}

func (s *Strategy) Name() string { return "momentum" }

// OnPriceUpdate is the urgency-window dispatch path: priceDiff is already
// known to meet the threshold-within-window test, so this only decides
// direction and whether the SMA/RSI filter confirms it.
func (s *Strategy) OnPriceUpdate(asset string, price, priceDiff float64) *domain.OrderIntent {
	vals := s.ind.update(asset, price)

	side := domain.SideBuy
	if vals.smaShort < vals.smaLong {
		side = domain.SideSell
	}
	if side == domain.SideBuy && vals.rsiValue >= s.cfg.RSIOverbought {
		return nil
	}
	if side == domain.SideSell && vals.rsiValue <= s.cfg.RSIOversold {
		return nil
	}

	tp := price + s.cfg.TakeProfitOffset
	sl := price - s.cfg.StopLossOffset
	if side == domain.SideSell {
		tp = price - s.cfg.TakeProfitOffset
		sl = price + s.cfg.StopLossOffset
	}

	return &domain.OrderIntent{
		Side: side,
		Size: s.cfg.OrderSize,
		Kind: domain.OrderMarket,
		Bracket: &domain.Bracket{
			TakeProfitPrice: tp,
			StopLossPrice:   sl,
			TrailAmount:     s.cfg.TrailAmount,
			Trigger:         domain.TriggerLastTrade,
		},
	}
}

// OnDepthUpdate lets the strategy keep its indicator window warm while a
// position is open; it issues no intents here (the dispatcher already skips
// entry-threshold logic while in-position).
func (s *Strategy) OnDepthUpdate(asset string, book domain.OrderBookL1) {
	if mid := book.Microprice(); mid > 0 {
		s.ind.update(asset, mid)
	}
}

// OnPositionUpdate tracks whether the strategy currently believes it holds
// a position, purely for its own bookkeeping (the dispatcher is the
// authority on gating).
func (s *Strategy) OnPositionUpdate(pos domain.Position) {
	s.mu.Lock()
	s.inMarket = !pos.Flat()
	s.mu.Unlock()
}

// OnOrderUpdate is a no-op for this strategy: it does not co-manage bracket
// children itself.
func (s *Strategy) OnOrderUpdate(order domain.ManagedOrder) {}
