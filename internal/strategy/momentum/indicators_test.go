package momentum

import "testing"

func TestSMAAveragesLastPeriodValues(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	if got := SMA(values, 3); got != 4 {
		t.Fatalf("SMA(values, 3) = %v, want 4", got)
	}
}

func TestSMAShortHistoryReturnsZero(t *testing.T) {
	if got := SMA([]float64{1, 2}, 5); got != 0 {
		t.Fatalf("SMA with insufficient history = %v, want 0", got)
	}
}

func TestRSIAllGainsReturns100(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	if got := RSI(values, 5); got != 100 {
		t.Fatalf("RSI(all gains) = %v, want 100", got)
	}
}

func TestRSIAllLossesReturnsZero(t *testing.T) {
	values := []float64{6, 5, 4, 3, 2, 1}
	if got := RSI(values, 5); got != 0 {
		t.Fatalf("RSI(all losses) = %v, want 0", got)
	}
}

func TestIndicatorEngineTrimsWindowPerSymbol(t *testing.T) {
	e := newIndicatorEngine(2, 3, 3, 4)
	for _, p := range []float64{1, 2, 3, 4, 5} {
		e.update("BTC", p)
	}
	e.mu.Lock()
	got := len(e.prices["BTC"])
	e.mu.Unlock()
	if got != 4 {
		t.Fatalf("window length = %d, want 4", got)
	}

	vals := e.update("ETH", 10)
	if vals.smaShort != 0 || vals.smaLong != 0 {
		t.Fatalf("single-sample update should be below any MA period, got %+v", vals)
	}
}
