// Package momentum is a concrete, reference Strategy implementation: a
// momentum-follow entry with a fixed take-profit/stop-loss bracket, driven
// by a short/long moving-average cross and an RSI filter. It exists to give
// the pluggable strategy.Strategy capability a real tenant, since the
// execution core's own scope treats quantitative formulae as external and
// substitutable (§1). Grounded verbatim-in-spirit on the teacher's
// internal/indicators/{ma,rsi,engine}.go sliding-window indicator engine.
package momentum

import "sync"

// SMA calculates the simple moving average for the last period values.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// RSI computes a basic Relative Strength Index with smoothing disabled.
func RSI(values []float64, period int) float64 {
	if period <= 0 || len(values) < period+1 {
		return 0
	}

	gain := 0.0
	loss := 0.0
	for i := len(values) - period; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}

	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - (100 / (1 + rs))
}

// indicatorEngine maintains per-symbol price windows and the derived
// sma_short/sma_long/rsi values the Strategy decision rule reads.
type indicatorEngine struct {
	mu      sync.Mutex
	prices  map[string][]float64
	window  int
	shortMA int
	longMA  int
	rsi     int
}

func newIndicatorEngine(shortMA, longMA, rsiPeriod, window int) *indicatorEngine {
	if window < longMA {
		window = longMA
	}
	return &indicatorEngine{
		prices:  make(map[string][]float64),
		window:  window,
		shortMA: shortMA,
		longMA:  longMA,
		rsi:     rsiPeriod,
	}
}

type indicatorValues struct {
	smaShort, smaLong, rsiValue float64
}

func (e *indicatorEngine) update(symbol string, price float64) indicatorValues {
	e.mu.Lock()
	defer e.mu.Unlock()

	arr := append(e.prices[symbol], price)
	if len(arr) > e.window {
		arr = arr[len(arr)-e.window:]
	}
	e.prices[symbol] = arr

	return indicatorValues{
		smaShort: SMA(arr, e.shortMA),
		smaLong:  SMA(arr, e.longMA),
		rsiValue: RSI(arr, e.rsi),
	}
}
